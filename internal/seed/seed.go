// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"taleweave/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the plaintext password every seeded user shares.
const DemoPassword = "password123"

// Seeder populates the database with demo users, stories, likes, and comments.
type Seeder struct {
	db *gorm.DB
	r  *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	src := time.Now().UnixNano()
	gofakeit.Seed(src)
	return &Seeder{db: db, r: rand.New(rand.NewSource(src))}
}

// ClearAll wipes seeded data. Hard-deletes so repeated seeding runs stay
// within unique constraints.
func (s *Seeder) ClearAll() error {
	for _, model := range []any{&models.Like{}, &models.Comment{}, &models.Story{}, &models.User{}} {
		if err := s.db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
	}
	log.Println("Cleared existing data")
	return nil
}

// SeedUsers creates n users with usernames derived from fake identities.
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		username := fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i)
		if len(username) > 20 {
			username = username[:20]
		}
		users = append(users, &models.User{
			Username: username,
			Email:    fmt.Sprintf("%s@%s", username, gofakeit.DomainName()),
			Password: string(hashed),
			Avatar:   fmt.Sprintf("https://i.pravatar.cc/300?u=%s", username),
		})
	}
	if err := s.db.Create(&users).Error; err != nil {
		return nil, err
	}

	log.Printf("Seeded %d users", len(users))
	return users, nil
}

// SeedStories creates n stories spread across the given authors with a
// realistic created_at spread over the past 90 days.
func (s *Seeder) SeedStories(authors []*models.User, n int) ([]*models.Story, error) {
	if len(authors) == 0 {
		return nil, fmt.Errorf("no authors to attribute stories to")
	}

	stories := make([]*models.Story, 0, n)
	for i := 0; i < n; i++ {
		author := authors[s.r.Intn(len(authors))]
		content := gofakeit.Paragraph(4, 6, 12, "\n\n")
		status := models.StoryStatusPublished
		if s.r.Intn(10) == 0 {
			status = models.StoryStatusDraft
		}

		story := &models.Story{
			Title:     gofakeit.Sentence(4),
			Content:   content,
			Genre:     models.Genres[s.r.Intn(len(models.Genres))],
			UserID:    author.ID,
			Status:    status,
			WordCount: models.CountWords(content),
			CreatedAt: s.pastTime(90),
		}
		if s.r.Intn(3) == 0 {
			story.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID())
		}
		stories = append(stories, story)
	}
	if err := s.db.Create(&stories).Error; err != nil {
		return nil, err
	}

	log.Printf("Seeded %d stories", len(stories))
	return stories, nil
}

// SeedEngagement scatters likes and comments from the users over the stories.
func (s *Seeder) SeedEngagement(users []*models.User, stories []*models.Story) error {
	var likes []*models.Like
	var comments []*models.Comment

	for _, story := range stories {
		for _, user := range users {
			if s.r.Intn(4) == 0 {
				likes = append(likes, &models.Like{UserID: user.ID, StoryID: story.ID})
			}
			if s.r.Intn(8) == 0 {
				comments = append(comments, &models.Comment{
					Content: gofakeit.Sentence(8 + s.r.Intn(10)),
					UserID:  user.ID,
					StoryID: story.ID,
				})
			}
		}
	}

	if len(likes) > 0 {
		if err := s.db.Create(&likes).Error; err != nil {
			return err
		}
	}
	if len(comments) > 0 {
		if err := s.db.Create(&comments).Error; err != nil {
			return err
		}
	}

	log.Printf("Seeded %d likes and %d comments", len(likes), len(comments))
	return nil
}

func (s *Seeder) pastTime(maxDays int) time.Time {
	daysBack := s.r.Intn(maxDays)
	hoursBack := s.r.Intn(24)
	minsBack := s.r.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

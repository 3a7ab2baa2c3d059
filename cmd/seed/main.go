package main

import (
	"log"
	"os"
	"time"

	"memento-be/internal/model"
	"memento-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seeds a demo account with a small photo album so a fresh environment can
// run a full conversation end to end.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Seeding demo account...")

	user, created := seedUser(db)
	if created {
		color.Green("Created demo user: %s", user.Email)
	} else {
		color.Yellow("Demo user already exists, skipping: %s", user.Email)
	}

	seedPhotos(db, user)

	color.Cyan("Seeding completed.")
}

func seedUser(db *gorm.DB) (*model.User, bool) {
	email := "demo@memento.local"

	var existing model.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return &existing, false
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234!"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Error: Failed to hash demo password: %v", err)
	}
	passwordHash := string(hash)
	birthYear := 1948
	caregiverEmail := "caregiver@memento.local"

	user := model.User{
		Email:          email,
		PasswordHash:   &passwordHash,
		FullName:       "김순자",
		BirthYear:      &birthYear,
		Role:           "user",
		Status:         "active",
		CaregiverEmail: &caregiverEmail,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("Error: Failed to create demo user: %v", err)
	}
	return &user, true
}

func seedPhotos(db *gorm.DB, user *model.User) {
	takenAt := time.Date(1975, 5, 5, 0, 0, 0, 0, time.UTC)

	photos := []model.Photo{
		{
			UserId:      user.Id,
			URL:         "https://cdn.memento.local/seed/haeundae.jpg",
			Title:       "해운대 가족 나들이",
			Description: "딸과 손자와 함께 부산 해운대 해수욕장에서 찍은 사진",
			TakenAt:     &takenAt,
			Metadata: datatypes.JSONMap{
				"place":  "부산 해운대",
				"people": []interface{}{"딸", "손자"},
				"season": "봄",
			},
		},
		{
			UserId:      user.Id,
			URL:         "https://cdn.memento.local/seed/hanok.jpg",
			Title:       "고향 집 마당",
			Description: "어릴 적 살던 한옥 마당, 감나무가 보이는 사진",
			Metadata: datatypes.JSONMap{
				"place": "전주 한옥마을",
			},
		},
	}

	for _, photo := range photos {
		var existing model.Photo
		if err := db.Where("user_id = ? AND url = ?", photo.UserId, photo.URL).First(&existing).Error; err == nil {
			color.Yellow("Photo already exists, skipping: %s", photo.Title)
			continue
		}
		if err := db.Create(&photo).Error; err != nil {
			color.Red("Error creating photo %q: %v", photo.Title, err)
			continue
		}
		color.Green("Created photo: %s", photo.Title)
	}
}

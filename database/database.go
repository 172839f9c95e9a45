package database

import (
	"fmt"
	"log"

	config "github.com/nmwangui/testprep/configs"
	"github.com/nmwangui/testprep/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:            false,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Topic{},
		&models.Test{},
		&models.Question{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func SeedAdmin() {
	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️ ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed.")
		return
	}

	var count int64
	if err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error; err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
	}
	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
	}

	password := string(hashedPassword)
	adminUser := models.User{
		Name:     config.ConfigOr("ADMIN_NAME", "Administrator"),
		Email:    adminEmail,
		Password: &password,
		IsAdmin:  true,
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
	}

	log.Println("✅ Admin user seeded successfully")
}

// SeedTopics loads the topic catalog. Topics are reference data: inserted once,
// matched by name, never updated here.
func SeedTopics() {
	placeholder := func(label string) *string {
		url := "https://via.placeholder.com/150?text=" + label
		return &url
	}

	topics := []models.Topic{
		{
			Name:        "JavaScript Fundamentals",
			Description: "Test your knowledge of JavaScript basics, including variables, functions, and control flow.",
			ImageURL:    placeholder("JS"),
			Category:    "Programming",
		},
		{
			Name:        "React Essentials",
			Description: "Test your understanding of React core concepts, including components, props, and state.",
			ImageURL:    placeholder("React"),
			Category:    "Programming",
		},
		{
			Name:        "Data Structures",
			Description: "Test your knowledge of fundamental data structures like arrays, linked lists, trees, and graphs.",
			ImageURL:    placeholder("DS"),
			Category:    "Computer Science",
		},
		{
			Name:        "Algorithms",
			Description: "Test your understanding of common algorithms and their complexity.",
			ImageURL:    placeholder("Algo"),
			Category:    "Computer Science",
		},
		{
			Name:        "SQL Basics",
			Description: "Test your knowledge of SQL queries and database concepts.",
			ImageURL:    placeholder("SQL"),
			Category:    "Database",
		},
	}

	for _, topic := range topics {
		var count int64
		if err := DB.Model(&models.Topic{}).Where("name = ?", topic.Name).Count(&count).Error; err != nil {
			log.Printf("🔥 Failed to check for topic %q: %v", topic.Name, err)
			continue
		}
		if count > 0 {
			continue
		}
		if err := DB.Create(&topic).Error; err != nil {
			log.Printf("🔥 Failed to seed topic %q: %v", topic.Name, err)
		}
	}

	fmt.Println("✅ Topic catalog seeded")
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/maskapp/mask/internal/config"
	"github.com/maskapp/mask/internal/database"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	pseudonym := flag.String("pseudonym", "", "Pseudonym of the user to change")
	role := flag.String("role", string(models.RoleAdmin), "Role to grant: user, moderator or admin")
	revoke := flag.Bool("revoke", false, "Reset the user to the plain user role")
	flag.Parse()

	if *pseudonym == "" {
		fmt.Println("Usage: promote-admin -pseudonym=alice [-role=admin|moderator|user]")
		fmt.Println("       promote-admin -pseudonym=alice -revoke")
		os.Exit(1)
	}

	target := models.Role(strings.ToLower(*role))
	if *revoke {
		target = models.RoleUser
	}
	if !target.Valid() {
		fmt.Printf("Unknown role %q\n", *role)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	_ = logger.Initialize("warn", "")

	if err := database.Initialize(cfg.DB); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	var user models.User
	err = database.DB.Where("LOWER(pseudonym) = ? AND deleted_at IS NULL", strings.ToLower(*pseudonym)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fmt.Printf("User not found: %s\n", *pseudonym)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
		os.Exit(1)
	}

	if user.Role == target {
		fmt.Printf("%s already has role %s\n", user.Pseudonym, target)
		return
	}

	previous := user.Role
	if err := database.DB.Model(&user).Update("role", target).Error; err != nil {
		fmt.Fprintf(os.Stderr, "Failed to update role: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %s -> %s\n", user.Pseudonym, previous, target)
	fmt.Printf("  User ID: %s\n", user.ID)
	fmt.Println("  Existing tokens keep the old role claim until the user logs in again")
}

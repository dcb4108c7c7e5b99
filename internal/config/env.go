package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads a .env file from the working directory or a parent, so
// GITHUB_TOKEN can live next to the checkout instead of the shell profile.
// Absence of a .env file is not an error; real environment variables win.
func loadEnvFiles() {
	path, err := findEnvFile()
	if err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func findEnvFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, ".env")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

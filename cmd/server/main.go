package main

import (
	"os"
)

// @title           Examdrill API
// @version         1.0
// @description     Multiple-choice exam practice: compose randomized exams, grade them, review past mistakes.

// @host      localhost:8080
// @BasePath  /

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

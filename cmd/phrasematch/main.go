package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/codethatfits/phrasematch/api"
	"github.com/codethatfits/phrasematch/config"
	"github.com/codethatfits/phrasematch/internal/engine"
)

func main() {
	// Define command-line flags
	var (
		help       = flag.Bool("help", false, "Show help message")
		version    = flag.Bool("version", false, "Show version information")
		port       = flag.String("port", "8080", "Port to run the server on")
		dataDir    = flag.String("data-dir", "./phrase_data", "Directory to store collection data")
		policyFile = flag.String("policy-file", "", "YAML file of scrub policies to seed on startup")
	)

	flag.Parse()

	// Handle help flag
	if *help {
		fmt.Printf("Phrasematch - exact phrase discovery and scrubbing over document collections\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                                # Start server on default port 8080\n", os.Args[0])
		fmt.Printf("  %s --port 9000                    # Start server on port 9000\n", os.Args[0])
		fmt.Printf("  %s --data-dir /var/lib/phrases    # Use custom data directory\n", os.Args[0])
		fmt.Printf("  %s --policy-file policies.yaml    # Seed scrub policies on startup\n", os.Args[0])
		return
	}

	// Handle version flag
	if *version {
		fmt.Printf("Phrasematch v1.0.0\n")
		fmt.Printf("Offset-exact phrase discovery with markup-aware scrubbing and revision history\n")
		return
	}

	// Initialize the phrase engine
	log.Printf("Using data directory: %s", *dataDir)
	phraseEngine, err := engine.NewEngine(*dataDir)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	// Seed scrub policies from file, if requested
	if *policyFile != "" {
		file, err := config.LoadPolicyFile(*policyFile)
		if err != nil {
			log.Fatalf("Failed to load policy file: %v", err)
		}
		count, err := phraseEngine.PolicyStore().SeedFromFile(*file)
		if err != nil {
			log.Fatalf("Failed to seed policies: %v", err)
		}
		log.Printf("Seeded %d scrub policies from %s", count, *policyFile)
	}

	// Initialize Gin router
	router := gin.Default()

	// Setup API routes
	api.SetupRoutes(router, phraseEngine)

	// Start the server
	log.Printf("Starting server on port %s...", *port)
	if err := router.Run(":" + *port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

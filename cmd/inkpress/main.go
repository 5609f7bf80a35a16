package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// .env is optional; the process environment wins over it.
	_ = godotenv.Load()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe()
	case "build":
		dir := "out"
		if len(os.Args) > 2 {
			dir = os.Args[2]
		}
		err = runBuild(dir)
	case "seed":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: inkpress seed <dataset.yaml>")
			os.Exit(1)
		}
		err = runSeed(os.Args[2])
	case "approve":
		id := ""
		if len(os.Args) > 2 {
			id = os.Args[2]
		}
		err = runApprove(id)
	case "version":
		fmt.Printf("inkpress %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`inkpress - A blog front end for a headless content store, built with Go, Echo, and templ

Usage:
  inkpress <command> [arguments]

Commands:
  serve               Pre-render every page and serve the site
  build [dir]         Write the site as static files (default "out")
  seed <file.yaml>    Import authors, posts and comments into the local dataset
  approve [id]        Approve a comment in the local dataset, or list pending ones
  version             Print the inkpress version
  help                Show this help message

Environment:
  CMS_DRIVER          api (default) or sqlite
  CMS_PROJECT_ID      Content API project id
  CMS_DATASET         Content API dataset (default "production")
  CMS_API_VERSION     Content API version date
  CMS_USE_CDN         Read through the API CDN (true/false)
  CMS_TOKEN           Token for writes and authenticated reads
  DATABASE_PATH       Local dataset file (default "data/blog.db")
  SITE_NAME, SITE_URL, SITE_DESCRIPTION, ADDR
  REVALIDATE          Page revalidation interval, e.g. 60s
  VALIDATE_COMMENTS   Validate comment fields server side (true/false)
  COMMENT_RATE_LIMIT  Submissions per IP per minute
  IMAGE_DIR           Serve image assets from this directory under /images/
  STATIC_DIR          Directory served under /public/ (default "public")
  LOG_LEVEL           debug, info, warn, error or off`)
}

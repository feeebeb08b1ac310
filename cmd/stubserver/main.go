// Command stubserver runs the in-memory stub API with demo data.
package main

import (
	"flag"
	"log"

	"campus/internal/stub"
)

func main() {
	addr := flag.String("addr", ":8375", "Listen address")
	users := flag.Int("users", 8, "Number of users to seed")
	posts := flag.Int("posts", 20, "Number of posts to seed")
	channels := flag.Int("channels", 2, "Number of channels to seed")
	flag.Parse()

	srv, err := stub.New(stub.Options{})
	if err != nil {
		log.Fatalf("Failed to start stub: %v", err)
	}

	if err := srv.Seed(stub.SeedOptions{
		Users:    *users,
		Posts:    *posts,
		Channels: *channels,
	}); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}

	log.Printf("Stub API on %s (all seeded users have the password: password123)", *addr)
	log.Fatal(srv.Listen(*addr))
}

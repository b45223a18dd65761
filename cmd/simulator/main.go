package main

import (
	"context"
	"log"
	"time"

	"hellofeed/simulator"
)

func main() {
	config := simulator.SimConfig{
		NumUsers:         10,
		SimulationTime:   10 * time.Minute,
		PostFrequency:    100.0,
		CommentFrequency: 60.0,
		LikeFrequency:    200.0,
		FollowFrequency:  30.0,
		BookmarkRate:     0.2,
		DisconnectRate:   0.01,
		ReconnectRate:    0.05,
		ZipfS:            1.07,
		ServerURL:        "http://localhost:8080",
	}

	sim := simulator.NewSimulator(config)
	ctx, cancel := context.WithTimeout(context.Background(), config.SimulationTime)
	defer cancel()

	log.Printf("Starting simulation with configuration:")
	log.Printf("- Server URL: %s", config.ServerURL)
	log.Printf("- Number of users: %d", config.NumUsers)
	log.Printf("- Simulation time: %v", config.SimulationTime)
	log.Printf("- Post frequency: %.2f posts/user/hour", config.PostFrequency)
	log.Printf("- Comment frequency: %.2f comments/user/hour", config.CommentFrequency)
	log.Printf("- Like frequency: %.2f toggles/user/hour", config.LikeFrequency)
	log.Printf("- Follow frequency: %.2f actions/user/hour", config.FollowFrequency)
	log.Printf("- Disconnect rate: %.2f", config.DisconnectRate)
	log.Printf("- Reconnect rate: %.2f", config.ReconnectRate)
	log.Printf("- Zipf parameter: %.2f", config.ZipfS)

	if err := sim.Run(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	metrics := sim.GetMetrics()
	log.Printf("\nSimulation completed. Final metrics:")
	log.Printf("- Total users: %d", metrics.TotalUsers)
	log.Printf("- Active users at end: %d", metrics.ActiveUsers)
	log.Printf("- Total posts: %d", metrics.TotalPosts)
	log.Printf("- Total comments: %d", metrics.TotalComments)
	log.Printf("- Total like toggles: %d", metrics.TotalLikes)
	log.Printf("- Total follows: %d", metrics.TotalFollows)
	log.Printf("- Total bookmarks: %d", metrics.TotalBookmarks)
	log.Printf("- Error count: %d", metrics.ErrorCount)
}

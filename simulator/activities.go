package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

func (s *Simulator) SimulateActivities(ctx context.Context) error {
	log.Printf("Starting activities simulation...")

	// Engagement waits until a seed pool of posts exists.
	postsAvailable := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulatePosts(ctx, postsAvailable)
	}()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.stats.mu.RLock()
				if s.stats.TotalPosts >= 10 {
					s.stats.mu.RUnlock()
					select {
					case <-postsAvailable:
					default:
						close(postsAvailable)
					}
					return
				}
				s.stats.mu.RUnlock()
			}
		}
	}()

	engagement := []struct {
		name string
		run  func(context.Context)
	}{
		{"likes", s.simulateLikes},
		{"comments", s.simulateComments},
		{"bookmarks", s.simulateBookmarks},
		{"follows", s.simulateFollows},
	}

	for _, activity := range engagement {
		wg.Add(1)
		go func(name string, run func(context.Context)) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case <-postsAvailable:
				log.Printf("Starting %s after posts available...", name)
				run(ctx)
			}
		}(activity.name, activity.run)
	}

	wg.Wait()
	return nil
}

func (s *Simulator) simulatePosts(ctx context.Context, postsAvailable chan struct{}) {
	log.Printf("Starting post simulation...")

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	const numWorkers = 5
	postJobs := make(chan *SimulatedUser, s.config.NumUsers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for user := range postJobs {
				if !user.IsConnected {
					continue
				}

				if rand.Float64() < (s.config.PostFrequency/3600.0)/2.0 {
					postData := map[string]interface{}{
						"imageUrl": fmt.Sprintf("https://picsum.photos/seed/%s-%d/800", user.Username, time.Now().UnixNano()),
						"caption":  fmt.Sprintf("Shot by %s at %s", user.Username, time.Now().Format(time.RFC3339)),
					}

					start := time.Now()
					resp, err := s.makeRequest("POST", "/posts", postData, user.Token)
					if err != nil {
						log.Printf("Debug: Worker %d failed to create post: %v", workerID, err)
						continue
					}

					var created struct {
						ID string `json:"id"`
					}
					if err := json.Unmarshal(resp, &created); err != nil {
						continue
					}
					postID, err := uuid.Parse(created.ID)
					if err != nil {
						continue
					}

					s.mu.Lock()
					user.Posts = append(user.Posts, postID)
					s.allPosts = append(s.allPosts, postID)
					s.mu.Unlock()

					s.stats.mu.Lock()
					s.stats.TotalPosts++
					postCount := s.stats.TotalPosts
					s.stats.mu.Unlock()

					log.Printf("Created post by user %s (Total: %d)", user.Username, postCount)
					s.recordRequestMetrics(start, nil)

					if postCount == 10 {
						select {
						case <-postsAvailable:
						default:
							close(postsAvailable)
						}
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(postJobs)
			wg.Wait()
			return
		case <-ticker.C:
			s.mu.RLock()
			for _, user := range s.users {
				if user.IsConnected {
					select {
					case postJobs <- user:
					default:
					}
				}
			}
			s.mu.RUnlock()
		}
	}
}

func (s *Simulator) simulateLikes(ctx context.Context) {
	s.runEngagementLoop(ctx, "like", s.config.LikeFrequency, func(user *SimulatedUser) {
		postID, ok := s.pickZipfPost()
		if !ok {
			return
		}

		data := map[string]interface{}{
			"postId": postID.String(),
		}
		resp, err := s.makeRequest("POST", "/posts/like", data, user.Token)
		if err != nil {
			log.Printf("Debug: Failed to toggle like: %v", err)
			return
		}

		var result struct {
			Liked bool `json:"liked"`
		}
		if json.Unmarshal(resp, &result) == nil {
			s.mu.Lock()
			user.LikedPosts[postID] = result.Liked
			s.mu.Unlock()
		}

		s.stats.mu.Lock()
		s.stats.TotalLikes++
		s.stats.mu.Unlock()

		// A fraction of liked posts also get saved.
		if result.Liked && rand.Float64() < s.config.BookmarkRate {
			s.bookmarkPost(user, postID)
		}
	})
}

func (s *Simulator) simulateComments(ctx context.Context) {
	s.runEngagementLoop(ctx, "comment", s.config.CommentFrequency, func(user *SimulatedUser) {
		postID, ok := s.pickZipfPost()
		if !ok {
			return
		}

		data := map[string]interface{}{
			"postId": postID.String(),
			"text":   fmt.Sprintf("Comment from %s at %s", user.Username, time.Now().Format(time.RFC3339)),
		}
		if _, err := s.makeRequest("POST", "/comments", data, user.Token); err != nil {
			log.Printf("Debug: Failed to create comment: %v", err)
			return
		}

		s.stats.mu.Lock()
		s.stats.TotalComments++
		commentCount := s.stats.TotalComments
		s.stats.mu.Unlock()
		log.Printf("Created comment by user %s (Total: %d)", user.Username, commentCount)
	})
}

func (s *Simulator) simulateBookmarks(ctx context.Context) {
	s.runEngagementLoop(ctx, "bookmark", s.config.LikeFrequency*s.config.BookmarkRate, func(user *SimulatedUser) {
		postID, ok := s.pickZipfPost()
		if !ok {
			return
		}

		s.mu.RLock()
		saved := user.Bookmarks[postID]
		s.mu.RUnlock()

		if saved {
			endpoint := fmt.Sprintf("/bookmarks?postId=%s", postID)
			if _, err := s.makeRequest("DELETE", endpoint, nil, user.Token); err != nil {
				return
			}
			s.mu.Lock()
			delete(user.Bookmarks, postID)
			s.mu.Unlock()
		} else {
			s.bookmarkPost(user, postID)
		}
	})
}

func (s *Simulator) simulateFollows(ctx context.Context) {
	s.runEngagementLoop(ctx, "follow", s.config.FollowFrequency, func(user *SimulatedUser) {
		s.mu.RLock()
		target := s.users[rand.Intn(len(s.users))]
		following := user.Following[target.ID]
		s.mu.RUnlock()

		if target.ID == user.ID {
			return
		}

		if following {
			endpoint := fmt.Sprintf("/follows?targetId=%s", target.ID)
			if _, err := s.makeRequest("DELETE", endpoint, nil, user.Token); err != nil {
				return
			}
			s.mu.Lock()
			delete(user.Following, target.ID)
			s.mu.Unlock()
		} else {
			data := map[string]interface{}{
				"targetId": target.ID.String(),
			}
			if _, err := s.makeRequest("POST", "/follows", data, user.Token); err != nil {
				return
			}
			s.mu.Lock()
			user.Following[target.ID] = true
			s.mu.Unlock()
		}

		s.stats.mu.Lock()
		s.stats.TotalFollows++
		s.stats.mu.Unlock()
	})
}

func (s *Simulator) bookmarkPost(user *SimulatedUser, postID uuid.UUID) {
	data := map[string]interface{}{
		"postId": postID.String(),
	}
	if _, err := s.makeRequest("POST", "/bookmarks", data, user.Token); err != nil {
		return
	}

	s.mu.Lock()
	user.Bookmarks[postID] = true
	s.mu.Unlock()

	s.stats.mu.Lock()
	s.stats.TotalBookmarks++
	s.stats.mu.Unlock()
}

// runEngagementLoop is the shared worker-pool scaffold: every tick, each
// connected user rolls against frequency (events per hour) and the action
// runs on one of the workers.
func (s *Simulator) runEngagementLoop(ctx context.Context, name string, frequency float64, action func(*SimulatedUser)) {
	log.Printf("Starting %s simulation...", name)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	const numWorkers = 5
	jobs := make(chan *SimulatedUser, s.config.NumUsers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range jobs {
				if !user.IsConnected {
					continue
				}
				if rand.Float64() < (frequency/3600.0)/2.0 {
					action(user)
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case <-ticker.C:
			s.mu.RLock()
			for _, user := range s.users {
				if user.IsConnected {
					select {
					case jobs <- user:
					default:
					}
				}
			}
			s.mu.RUnlock()
		}
	}
}

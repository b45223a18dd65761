package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"hellofeed/internal/api"

	"github.com/google/uuid"
)

type SimConfig struct {
	NumUsers         int
	SimulationTime   time.Duration
	PostFrequency    float64 // posts per user per hour
	CommentFrequency float64 // comments per user per hour
	LikeFrequency    float64 // like toggles per user per hour
	FollowFrequency  float64 // follow actions per user per hour
	BookmarkRate     float64 // chance a liked post also gets bookmarked
	DisconnectRate   float64
	ReconnectRate    float64
	ZipfS            float64 // popularity skew for post selection
	ServerURL        string
}

type SimulationStats struct {
	mu               sync.RWMutex
	StartTime        time.Time
	TotalRequests    int64
	SuccessRequests  int64
	FailedRequests   int64
	AverageLatency   time.Duration
	ActiveUsers      int
	TotalPosts       int
	TotalComments    int
	TotalLikes       int
	TotalFollows     int
	TotalBookmarks   int
	RequestLatencies []time.Duration
}

// SimulatedUser tracks one synthetic account and its session token.
type SimulatedUser struct {
	ID          uuid.UUID
	Username    string
	Token       string
	IsConnected bool
	LastActive  time.Time
	Posts       []uuid.UUID
	LikedPosts  map[uuid.UUID]bool
	Bookmarks   map[uuid.UUID]bool
	Following   map[uuid.UUID]bool
}

type Simulator struct {
	config SimConfig
	stats  *SimulationStats
	users  []*SimulatedUser

	// allPosts is the shared pool activities pick targets from, skewed by
	// the Zipf distribution so a few posts soak up most engagement.
	allPosts []uuid.UUID

	client *http.Client
	mu     sync.RWMutex
}

func NewSimulator(config SimConfig) *Simulator {
	return &Simulator{
		config: config,
		stats: &SimulationStats{
			StartTime:        time.Now(),
			RequestLatencies: make([]time.Duration, 0),
		},
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	log.Printf("Starting feed simulation...")

	if err := s.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %v", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.SimulateActivities(ctx); err != nil {
			log.Printf("Activities simulation error: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateConnectivity(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()

	wg.Wait()
	return nil
}

func (s *Simulator) initialize(ctx context.Context) error {
	log.Printf("Starting initialization...")

	log.Printf("Phase 1: Creating %d users...", s.config.NumUsers)
	if err := s.createInitialUsers(ctx); err != nil {
		return fmt.Errorf("failed to create initial users: %v", err)
	}

	log.Printf("Phase 2: Seeding the follow graph...")
	if err := s.seedFollowGraph(ctx); err != nil {
		return fmt.Errorf("failed to seed follow graph: %v", err)
	}

	log.Printf("Initialization completed successfully")
	return nil
}

func (s *Simulator) createInitialUsers(ctx context.Context) error {
	s.users = make([]*SimulatedUser, 0, s.config.NumUsers)
	s.mu.Lock()
	defer s.mu.Unlock()

	// Limited workers so a cold server isn't flooded with registrations
	numWorkers := 5
	userJobs := make(chan int, numWorkers)
	results := make(chan *SimulatedUser, numWorkers)

	var wg sync.WaitGroup

	rateLimiter := time.NewTicker(200 * time.Millisecond)
	defer rateLimiter.Stop()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			client := &http.Client{
				Timeout: 5 * time.Second,
			}

			for userNum := range userJobs {
				<-rateLimiter.C

				user := &SimulatedUser{
					ID:          uuid.New(),
					Username:    fmt.Sprintf("user_%d", userNum),
					IsConnected: true,
					LikedPosts:  make(map[uuid.UUID]bool),
					Bookmarks:   make(map[uuid.UUID]bool),
					Following:   make(map[uuid.UUID]bool),
				}

				var err error
				for retries := 0; retries < 3; retries++ {
					if err = s.registerUserWithClient(ctx, user, client); err == nil {
						results <- user
						break
					}
					backoffDuration := time.Duration(math.Pow(2, float64(retries))) * time.Second
					log.Printf("Worker %d: Retry %d for user %s after %v delay",
						workerID, retries+1, user.Username, backoffDuration)
					time.Sleep(backoffDuration)
				}

				if err != nil {
					log.Printf("Worker %d: Failed to register user %s after retries: %v",
						workerID, user.Username, err)
				}
			}
		}(i)
	}

	go func() {
		for i := 0; i < s.config.NumUsers; i++ {
			userJobs <- i
		}
		close(userJobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	successCount := 0
	progressTicker := time.NewTicker(2 * time.Second)
	defer progressTicker.Stop()

	for user := range results {
		s.users = append(s.users, user)
		successCount++

		select {
		case <-progressTicker.C:
			log.Printf("Progress: %d/%d users created (%.2f%%)",
				successCount, s.config.NumUsers,
				float64(successCount)/float64(s.config.NumUsers)*100)
		default:
		}
	}

	log.Printf("Successfully created %d users", len(s.users))
	return nil
}

// registerUserWithClient mints a session token for a fresh identity, then
// creates the profile document behind it.
func (s *Simulator) registerUserWithClient(ctx context.Context, user *SimulatedUser, client *http.Client) error {
	tokenData := api.TokenRequest{
		UserID:   user.ID.String(),
		Username: user.Username,
	}

	resp, err := s.makeRequestWithClient(client, "POST", "/auth/token", tokenData, "")
	if err != nil {
		return fmt.Errorf("failed to mint token: %v", err)
	}

	var tokenResult api.TokenResponse
	if err := json.Unmarshal(resp, &tokenResult); err != nil {
		return fmt.Errorf("failed to parse token response: %v", err)
	}
	if tokenResult.Token == "" {
		return fmt.Errorf("empty token returned")
	}
	user.Token = tokenResult.Token

	profileData := map[string]interface{}{
		"username": user.Username,
		"fullname": fmt.Sprintf("Test User %s", user.Username),
		"email":    fmt.Sprintf("%s@test.com", user.Username),
	}

	if _, err := s.makeRequestWithClient(client, "POST", "/users", profileData, user.Token); err != nil {
		return fmt.Errorf("failed to create profile: %v", err)
	}

	return nil
}

// seedFollowGraph gives every user a Zipf-skewed set of accounts to
// follow, so a handful of users end up with most of the followers.
func (s *Simulator) seedFollowGraph(ctx context.Context) error {
	if len(s.users) < 2 {
		return nil
	}

	zipf := rand.NewZipf(rand.New(rand.NewSource(time.Now().UnixNano())),
		s.config.ZipfS, 1, uint64(len(s.users)-1))

	for _, user := range s.users {
		numFollows := (int(zipf.Uint64()) % 10) + 1

		for i := 0; i < numFollows; i++ {
			target := s.users[int(zipf.Uint64())%len(s.users)]
			if target.ID == user.ID || user.Following[target.ID] {
				continue
			}

			data := map[string]interface{}{
				"targetId": target.ID.String(),
			}
			if _, err := s.makeRequest("POST", "/follows", data, user.Token); err != nil {
				log.Printf("Failed to follow: %v", err)
				continue
			}
			user.Following[target.ID] = true

			s.stats.mu.Lock()
			s.stats.TotalFollows++
			s.stats.mu.Unlock()
		}

		time.Sleep(20 * time.Millisecond)
	}

	log.Printf("Follow graph seeded with %d edges", s.stats.TotalFollows)
	return nil
}

// pickZipfPost selects an engagement target, skewed toward early posts.
func (s *Simulator) pickZipfPost() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.allPosts) == 0 {
		return uuid.Nil, false
	}
	zipf := rand.NewZipf(rand.New(rand.NewSource(time.Now().UnixNano())),
		s.config.ZipfS, 1, uint64(len(s.allPosts)))
	idx := int(zipf.Uint64()) % len(s.allPosts)
	return s.allPosts[idx], true
}

func (s *Simulator) makeRequest(method, endpoint string, data interface{}, token string) ([]byte, error) {
	return s.makeRequestWithClient(s.client, method, endpoint, data, token)
}

func (s *Simulator) makeRequestWithClient(client *http.Client, method, endpoint string, data interface{}, token string) ([]byte, error) {
	var body []byte
	var err error

	if data != nil {
		body, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, s.config.ServerURL+endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	s.recordRequestMetrics(start, err)

	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request failed with status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (s *Simulator) simulateConnectivity(ctx context.Context) {
	log.Printf("Starting connectivity simulation...")
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			for _, user := range s.users {
				if user.IsConnected {
					if rand.Float64() < s.config.DisconnectRate {
						user.IsConnected = false
					}
				} else {
					if rand.Float64() < s.config.ReconnectRate {
						user.IsConnected = true
						user.LastActive = time.Now()
					}
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Simulator) recordRequestMetrics(start time.Time, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++
	s.stats.RequestLatencies = append(s.stats.RequestLatencies, latency)

	if err != nil {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}

	totalLatency := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (totalLatency + latency) / time.Duration(s.stats.TotalRequests)
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	log.Printf("Starting metrics collection...")
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.stats.mu.RLock()
			elapsed := time.Since(s.stats.StartTime)
			requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()
			successRate := 0.0
			if s.stats.TotalRequests > 0 {
				successRate = float64(s.stats.SuccessRequests) / float64(s.stats.TotalRequests) * 100
			}

			activeUsers := 0
			s.mu.RLock()
			for _, user := range s.users {
				if user.IsConnected {
					activeUsers++
				}
			}
			s.mu.RUnlock()

			s.stats.ActiveUsers = activeUsers

			log.Printf("\nSimulation Metrics (%.1f seconds elapsed):", elapsed.Seconds())
			log.Printf("- Request Rate: %.2f req/sec", requestRate)
			log.Printf("- Success Rate: %.1f%%", successRate)
			log.Printf("- Average Latency: %v", s.stats.AverageLatency)
			log.Printf("- Active Users: %d/%d", activeUsers, len(s.users))
			log.Printf("- Total Posts: %d", s.stats.TotalPosts)
			log.Printf("- Total Comments: %d", s.stats.TotalComments)
			log.Printf("- Total Like Toggles: %d", s.stats.TotalLikes)
			log.Printf("- Total Follows: %d", s.stats.TotalFollows)
			log.Printf("- Total Bookmarks: %d", s.stats.TotalBookmarks)
			log.Printf("- Failed Requests: %d", s.stats.FailedRequests)

			s.stats.mu.RUnlock()
		}
	}
}

// SimulationMetrics holds the metrics of the simulation
type SimulationMetrics struct {
	TotalUsers        int
	ActiveUsers       int
	TotalPosts        int
	TotalComments     int
	TotalLikes        int
	TotalFollows      int
	TotalBookmarks    int
	AverageLatency    time.Duration
	ErrorCount        int
	RequestsPerSecond float64
}

// GetMetrics returns the current simulation metrics
func (s *Simulator) GetMetrics() SimulationMetrics {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	elapsed := time.Since(s.stats.StartTime)
	requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()

	return SimulationMetrics{
		TotalUsers:        len(s.users),
		ActiveUsers:       s.stats.ActiveUsers,
		TotalPosts:        s.stats.TotalPosts,
		TotalComments:     s.stats.TotalComments,
		TotalLikes:        s.stats.TotalLikes,
		TotalFollows:      s.stats.TotalFollows,
		TotalBookmarks:    s.stats.TotalBookmarks,
		AverageLatency:    s.stats.AverageLatency,
		ErrorCount:        int(s.stats.FailedRequests),
		RequestsPerSecond: requestRate,
	}
}

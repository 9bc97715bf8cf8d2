package testmatches

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, url, body)
}

// Put performs a PUT request with JSON body
func (c *HTTPClient) Put(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	return c.send(ctx, http.MethodPut, url, body)
}

func (c *HTTPClient) send(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// registerUsers registers users concurrently, grants geolocation consent,
// and saves each user's location.
func registerUsers(ctx context.Context, config *Config, users []TestUser, stats *Stats) error {
	log.Printf("Registering %d users with %d workers...", len(users), config.Workers)

	client := newHTTPClient(config.Timeout)

	// Counters for statistics
	var (
		registered int64
		consented  int64
		located    int64
		failed     int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	userChan := make(chan TestUser, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for user := range userChan {
				select {
				case <-ctx.Done():
					return
				default:
					if err := registerSingleUser(ctx, client, config.BaseURL, user); err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("failed to register %s: %v", user.ID, err)
						}
						continue
					}
					atomic.AddInt64(&registered, 1)

					if err := grantConsent(ctx, client, config.BaseURL, user.ID); err != nil {
						if config.Verbose {
							log.Printf("failed to grant consent for %s: %v", user.ID, err)
						}
						continue
					}
					atomic.AddInt64(&consented, 1)

					saved, err := saveLocation(ctx, client, config.BaseURL, user)
					if err != nil {
						if config.Verbose {
							log.Printf("failed to save location for %s: %v", user.ID, err)
						}
						continue
					}
					if saved {
						atomic.AddInt64(&located, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						reg := atomic.LoadInt64(&registered)
						fail := atomic.LoadInt64(&failed)
						if config.Verbose {
							log.Printf("progress: %d/%d registered (failed: %d)", reg, len(users), fail)
						} else {
							fmt.Printf("\rRegistered: %d/%d (failed: %d)", reg, len(users), fail)
						}
					}
				}
			}
		}()
	}

	// Send users to workers
	go func() {
		defer close(userChan)
		for _, user := range users {
			select {
			case <-ctx.Done():
				return
			case userChan <- user:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.UsersRegistered = int(atomic.LoadInt64(&registered))
	stats.RegistrationsFailed = int(atomic.LoadInt64(&failed))
	stats.ConsentsGranted = int(atomic.LoadInt64(&consented))
	stats.LocationsSaved = int(atomic.LoadInt64(&located))

	log.Printf(`Registration completed:
   Registered: %d
   Consented: %d
   Located: %d
   Failed: %d
`, stats.UsersRegistered, stats.ConsentsGranted, stats.LocationsSaved, stats.RegistrationsFailed)

	return nil
}

// registerSingleUser creates a directory record. The location is saved
// through the consent-gated endpoint afterwards, not at registration.
func registerSingleUser(ctx context.Context, client *HTTPClient, baseURL string, user TestUser) error {
	payload := TestUser{
		ID:        user.ID,
		Name:      user.Name,
		Interests: user.Interests,
		Traits:    user.Traits,
	}

	resp, err := client.Post(ctx, baseURL+"/users", payload)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusCreated {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// grantConsent records geolocation consent for the user.
func grantConsent(ctx context.Context, client *HTTPClient, baseURL, userID string) error {
	url := fmt.Sprintf("%s/users/%s/consent", baseURL, userID)
	resp, err := client.Put(ctx, url, map[string]bool{"granted": true})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// saveLocation stores the user's coordinates through the consent gate.
func saveLocation(ctx context.Context, client *HTTPClient, baseURL string, user TestUser) (bool, error) {
	if user.Location == nil {
		return false, nil
	}

	url := fmt.Sprintf("%s/users/%s/location", baseURL, user.ID)
	resp, err := client.Post(ctx, url, user.Location)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return false, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var outcome SaveOutcome
	if err := unmarshalJSON(body, &outcome); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}
	return outcome.Saved, nil
}

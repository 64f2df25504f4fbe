package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

const (
	baseURL      = "http://127.0.0.1:18090"
	cookieName   = "quotad_bid"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numBrowsers  = 500
	raceTabs     = 64
)

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

type grant struct {
	Granted bool `json:"granted"`
}

func main() {
	fmt.Println("=== quotad Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s | Browsers: %d\n\n", numWorkers, testDuration, numBrowsers)

	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	fmt.Println("\n--- Phase 1: Issuing browser ids (POST /v1/usage/state) ---")
	browsers := make([]string, 0, numBrowsers)
	for i := 0; i < numBrowsers; i++ {
		id, err := newBrowser()
		if err != nil {
			fmt.Printf("FAILED: %s\n", err)
			return
		}
		browsers = append(browsers, id)
	}
	fmt.Printf("  %d browsers ready\n", len(browsers))

	fmt.Println("\n--- Phase 2: Mixed load (50% state, 35% convert, 15% ad-reward) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		id := browsers[rng.Intn(len(browsers))]
		r := rng.Float64()
		switch {
		case r < 0.50:
			return doPost("/v1/usage/state", id, http.StatusOK)
		case r < 0.85:
			return doPost("/v1/usage/convert", id, http.StatusOK, http.StatusTooManyRequests)
		default:
			return doPost("/v1/usage/ad-reward", id, http.StatusOK, http.StatusConflict)
		}
	})

	fmt.Printf("\n--- Phase 3: %d tabs of one browser convert at once ---\n", raceTabs)
	raceTabsConvert()
}

func newBrowser() (string, error) {
	resp, err := httpClient.Post(baseURL+"/v1/usage/state", "application/json", strings.NewReader(`{}`))
	if err != nil {
		return "", err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			return c.Value, nil
		}
	}
	return "", fmt.Errorf("no %s cookie in response", cookieName)
}

func post(path, browser string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader([]byte(`{"device":{"timezoneOffset":0}}`)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: cookieName, Value: browser})
	return httpClient.Do(req)
}

func doPost(path, browser string, okStatus ...int) result {
	endpoint := "POST " + path
	start := time.Now()
	resp, err := post(path, browser)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	failed := true
	for _, s := range okStatus {
		if resp.StatusCode == s {
			failed = false
		}
	}
	return result{endpoint, resp.StatusCode, lat, failed}
}

// raceTabsConvert fires concurrent conversions from one fresh browser. The
// number of grants must equal the anonymous daily limit.
func raceTabsConvert() {
	id, err := newBrowser()
	if err != nil {
		fmt.Printf("  FAILED: %s\n", err)
		return
	}

	var granted, denied, failed atomic.Int64
	var wg sync.WaitGroup
	startGate := make(chan struct{})
	for i := 0; i < raceTabs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-startGate
			resp, err := post("/v1/usage/convert", id)
			if err != nil {
				failed.Add(1)
				return
			}
			defer resp.Body.Close()
			var g grant
			if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
				failed.Add(1)
				return
			}
			if g.Granted {
				granted.Add(1)
			} else {
				denied.Add(1)
			}
		}()
	}
	close(startGate)
	wg.Wait()

	resp, err := post("/v1/usage/state", id)
	if err != nil {
		fmt.Printf("  FAILED: %s\n", err)
		return
	}
	defer resp.Body.Close()
	var st struct {
		TotalAllowed int `json:"totalAllowed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  FAILED: %s\n", err)
		return
	}

	verdict := "OK"
	if granted.Load() != int64(st.TotalAllowed) {
		verdict = "RACE: more grants than allowed"
	}
	fmt.Printf("  granted %d | denied %d | errors %d | allowed %d => %s\n",
		granted.Load(), denied.Load(), failed.Load(), st.TotalAllowed, verdict)
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					results <- workFn(rng)
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-26s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 92))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		fmt.Printf("  %-26s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	if totalOps == 0 {
		return
	}
	fmt.Println("  " + strings.Repeat("-", 92))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, float64(totalOps)/duration.Seconds())
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

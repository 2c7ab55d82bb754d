package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Result records one HTTP outcome for aggregation.
type Result struct {
	Status int
	Body   string
	Err    error
}

// loadgen hammers the status-update endpoint for a single order with
// concurrent completed+paid calls, then checks the receipt endpoint: no
// matter how many calls land, exactly one receipt must exist.
func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	orderNo := flag.String("order", "ORD-1001", "order number to synchronize")
	seed := flag.Bool("seed", true, "create the order before the test")
	total := flag.Int("n", 100, "number of status-update calls")
	concurrency := flag.Int("c", 25, "max concurrency")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	if *seed {
		if err := seedOrder(client, *baseURL, *orderNo); err != nil {
			panic(fmt.Sprintf("seed order failed: %v", err))
		}
		fmt.Println("seed ok")
	}

	fmt.Printf("start sync storm: order=%s n=%d concurrency=%d\n", *orderNo, *total, *concurrency)
	results := runSyncStorm(client, *baseURL, *orderNo, *total, *concurrency)
	printSummary("sync_storm", results)

	checkReceipt(client, *baseURL, *orderNo)
}

func seedOrder(client *http.Client, baseURL, orderNo string) error {
	body := map[string]any{
		"order_no":      orderNo,
		"customer_name": "Load Test",
		"subtotal":      13000,
		"delivery_fee":  2000,
		"total":         15000,
		"items": []map[string]any{
			{"product_ref": "SKU-A", "product_name": "Item A", "quantity": 2, "unit_price": 5000},
			{"product_ref": "SKU-B", "product_name": "Item B", "quantity": 1, "unit_price": 3000},
		},
	}
	res := doJSON(client, http.MethodPost, baseURL+"/api/orders", body)
	if res.Err != nil {
		return res.Err
	}
	// 400 with "UNIQUE" means the order already exists from an earlier run.
	if res.Status != http.StatusOK && res.Status != http.StatusBadRequest {
		return fmt.Errorf("unexpected status %d: %s", res.Status, res.Body)
	}
	return nil
}

func runSyncStorm(client *http.Client, baseURL, orderNo string, total, concurrency int) []Result {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]Result, total)

	body := map[string]any{"order_status": "completed", "payment_status": "paid"}
	url := fmt.Sprintf("%s/api/orders/%s/status", baseURL, orderNo)

	for i := 0; i < total; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = doJSON(client, http.MethodPost, url, body)
		}(i)
	}

	wg.Wait()
	return results
}

func checkReceipt(client *http.Client, baseURL, orderNo string) {
	res := doJSON(client, http.MethodGet, fmt.Sprintf("%s/api/orders/%s/receipt", baseURL, orderNo), nil)
	if res.Err != nil {
		fmt.Println("receipt check err:", res.Err)
		return
	}
	fmt.Printf("receipt check: status=%d body=%s\n", res.Status, res.Body)
}

func doJSON(client *http.Client, method, url string, body any) Result {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Result{Err: err}
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return Result{Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return Result{Status: resp.StatusCode, Body: string(b)}
}

func printSummary(name string, results []Result) {
	counts := map[int]int{}
	errs := 0
	for _, r := range results {
		if r.Err != nil {
			errs++
			continue
		}
		counts[r.Status]++
	}
	fmt.Printf("%s summary: ", name)
	for status, n := range counts {
		fmt.Printf("%d=%d ", status, n)
	}
	if errs > 0 {
		fmt.Printf("errors=%d", errs)
	}
	fmt.Println()
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

const baseURL = "http://localhost:3000/api/pattern/v1"

func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// signToken mints a short lived HS256 token with the server's secret so the
// mutating routes can be exercised locally.
func signToken(secret string) string {
	if secret == "" {
		return ""
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "smoke",
		"exp": time.Now().Add(10 * time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		color.Red("sign token: %v", err)
		os.Exit(1)
	}
	return signed
}

func sendRequest(method, url, token string, body interface{}) (*http.Response, map[string]interface{}, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}
	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded, nil
}

func step(title, method, url, token string, body interface{}) map[string]interface{} {
	color.Yellow("\n%s", title)
	resp, decoded, err := sendRequest(method, url, token, body)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode >= 400 {
		color.Red("Status: %s", resp.Status)
	} else {
		color.Green("Status: %s", resp.Status)
	}
	prettyPrint(decoded)
	return decoded
}

func dataField(resp map[string]interface{}, key string) string {
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		return ""
	}
	s, _ := data[key].(string)
	return s
}

func main() {
	_ = godotenv.Load()
	token := signToken(os.Getenv("JWT_SECRET"))

	color.Cyan("Pattern API smoke test against %s\n", baseURL)

	step("1. List embedding configs", "GET", "/configs", "", nil)

	created := step("2. Create a 5 minute config", "POST", "/configs", token, map[string]interface{}{
		"name":                   fmt.Sprintf("smoke-%d", time.Now().Unix()),
		"strategy":               "handcrafted_v1",
		"window_seconds":         300,
		"window_overlap_seconds": 0,
		"min_snapshots":          3,
		"normalization":          "minmax",
	})
	configId := dataField(created, "id")

	end := time.Now().UTC().Truncate(time.Minute)
	req := map[string]interface{}{
		"start": end.Add(-2 * time.Hour),
		"end":   end,
	}
	if configId != "" {
		req["config_id"] = configId
	}
	job := step("3. Trigger a manual generation job", "POST", "/generate", token, req)
	jobId := dataField(job, "job_id")

	if jobId != "" {
		for i := 0; i < 10; i++ {
			time.Sleep(time.Second)
			_, decoded, err := sendRequest("GET", "/jobs/"+jobId, "", nil)
			if err != nil {
				break
			}
			status := dataField(decoded, "status")
			fmt.Printf("job %s: %s\n", jobId, status)
			if status == "COMPLETED" || status == "FAILED" {
				prettyPrint(decoded)
				break
			}
		}
	}

	step("4. Scheduler status", "GET", "/scheduler", "", nil)
	step("5. Index stats", "GET", "/index/stats", "", nil)
	step("6. Sync status", "GET", "/sync/status", "", nil)

	color.Cyan("\nDone")
}

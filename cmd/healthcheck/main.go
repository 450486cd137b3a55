package main

import (
	"net/http"
	"os"
	"strings"
	"time"
)

// Checks the version endpoint of a local server. VEILBORN_ADDR may override
// the default :8080.
func main() {
	addr := os.Getenv("VEILBORN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/version")
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
	os.Exit(0)
}

package e2e

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

const (
	adminUser     = "testuser"
	adminEmail    = "testuser@example.com"
	adminPassword = "testpass123"
)

var (
	appURL string
)

func TestMain(m *testing.M) {
	os.Exit(runTestMain(m))
}

func runTestMain(m *testing.M) int {
	// 1. Build the binary
	// We assume the test is run from the e2e directory (via go test ./e2e/...)
	// so the main package is at ../cmd/server
	buildPath := filepath.Join(os.TempDir(), "expense-api-test")
	cmd := exec.Command("go", "build", "-o", buildPath, "../cmd/server")
	// If running from root, adjust path
	if _, err := os.Stat("../cmd/server"); os.IsNotExist(err) {
		// Try absolute path or assume running from root
		if _, err := os.Stat("cmd/server"); err == nil {
			cmd = exec.Command("go", "build", "-o", buildPath, "./cmd/server")
		} else {
			fmt.Println("Could not find cmd/server to build")
			return 1
		}
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		fmt.Printf("Failed to build app: %v\n%s\n", err, output)
		return 1
	}
	defer os.Remove(buildPath)

	// 2. Start the server
	dbPath := filepath.Join(os.TempDir(), "test_expenses.db")
	os.Remove(dbPath) // Ensure clean state
	defer os.Remove(dbPath)

	port := "8081"
	appURL = "http://localhost:" + port

	serverCmd := exec.Command(buildPath)
	serverCmd.Env = append(os.Environ(),
		"PORT="+port,
		"DB_PATH="+dbPath,
		"JWT_SECRET=e2e-secret",
		"LOG_LEVEL=warn",
		"AUTH_RATE_BURST=100",
		"ADMIN_USER="+adminUser,
		"ADMIN_EMAIL="+adminEmail,
		"ADMIN_PASSWORD="+adminPassword,
	)
	serverCmd.Dir = ".."
	serverCmd.Stdout = os.Stdout
	serverCmd.Stderr = os.Stderr

	if err := serverCmd.Start(); err != nil {
		fmt.Printf("Failed to start server: %v\n", err)
		return 1
	}

	// Wait for server to be ready
	ready := false
	for range 50 {
		time.Sleep(100 * time.Millisecond)
		resp, err := http.Get(appURL + "/healthz")
		if err == nil && resp.StatusCode == 200 {
			ready = true
			resp.Body.Close()
			break
		}
	}

	if !ready {
		fmt.Println("Server failed to start or is not reachable")
		serverCmd.Process.Kill()
		return 1
	}

	// 3. Run tests
	code := m.Run()

	// 4. Cleanup
	if err := serverCmd.Process.Signal(syscall.SIGTERM); err != nil {
		fmt.Printf("Failed to stop server: %v\n", err)
		serverCmd.Process.Kill()
	}
	serverCmd.Wait()

	return code
}

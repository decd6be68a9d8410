//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const repoRootRel = ".."   // relative to ./e2e
const mainPkgRel = "./cmd" // main.go lives in cmd/

const mosquittoConf = "listener 1883\nallow_anonymous true\n"

func TestSmoke_SearchPublishesSnapshot(t *testing.T) {
	repoRoot := repoRootPath(t)

	brokerHost, brokerPort := startMosquitto(t)
	owm := startFakeOWM(t)
	messages := subscribe(t, brokerHost, brokerPort, "skyboard/snapshots/#")

	bin := buildBinary(t, repoRoot)
	addr := pickFreeAddr(t)

	cmd := exec.Command(bin)
	cmd.Env = append(os.Environ(),
		"APP_ENV=dev",
		"LOG_LEVEL=debug",
		"HTTP_ADDR="+addr,
		"DB_DRIVER=sqlite3",
		"SQLITE_PATH="+filepath.Join(t.TempDir(), "skyboard.db"),
		"OWM_API_KEY=e2e-key",
		"OWM_BASE_URL="+owm.URL,
		"DISPLAY_TZ=UTC",
		"MQTT_BROKER="+brokerHost,
		"MQTT_PORT="+brokerPort.Port(),
		"MQTT_CLIENT_ID=skyboard-e2e",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})

	client := &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	base := "http://" + addr

	waitForOK(t, client, base+"/healthz", 10*time.Second)

	resp, err := client.PostForm(base+"/search", url.Values{"q": {"London"}})
	if err != nil {
		t.Fatalf("POST /search: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("search status=%d want=%d", resp.StatusCode, http.StatusSeeOther)
	}

	page := getBody(t, client, base+"/")
	for _, want := range []string{"London, GB", "16°C", `class="forecast-card"`} {
		if !strings.Contains(page, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}

	resp, err = client.PostForm(base+"/saved", nil)
	if err != nil {
		t.Fatalf("POST /saved: %v", err)
	}
	_ = resp.Body.Close()

	var saved []map[string]any
	if err := json.Unmarshal([]byte(getBody(t, client, base+"/api/v1/saved-cities")), &saved); err != nil {
		t.Fatalf("decode saved cities: %v", err)
	}
	if len(saved) != 1 || saved[0]["name"] != "London" {
		t.Errorf("saved = %v", saved)
	}

	select {
	case msg := <-messages:
		if msg.Topic() != "skyboard/snapshots/gb/london" {
			t.Errorf("topic = %q", msg.Topic())
		}
		var payload struct {
			Snapshot struct {
				Name string `json:"name"`
			} `json:"snapshot"`
		}
		if err := json.Unmarshal(msg.Payload(), &payload); err != nil || payload.Snapshot.Name != "London" {
			t.Errorf("payload = %s (%v)", msg.Payload(), err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("no snapshot published")
	}

	stopServer(t, cmd)
}

func startMosquitto(t *testing.T) (string, nat.Port) {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2",
		ExposedPorts: []string{"1883/tcp"},
		Files: []tc.ContainerFile{{
			Reader:            strings.NewReader(mosquittoConf),
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0o644,
		}},
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.AutoRemove = true
		},
		WaitingFor: wait.ForListeningPort("1883/tcp").WithStartupTimeout(30 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start mosquitto container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, nat.Port("1883/tcp"))
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return host, port
}

func subscribe(t *testing.T, host string, port nat.Port, topic string) <-chan mqtt.Message {
	t.Helper()

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", host, port.Port())).
		SetClientID("skyboard-e2e-listener")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		t.Fatalf("listener connect: %v", token.Error())
	}
	t.Cleanup(func() { client.Disconnect(250) })

	out := make(chan mqtt.Message, 8)
	token := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) { out <- msg })
	if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		t.Fatalf("subscribe: %v", token.Error())
	}
	return out
}

// startFakeOWM serves canned weather and forecast responses for London.
func startFakeOWM(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /weather", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") != "e2e-key" {
			http.Error(w, `{"cod":401}`, http.StatusUnauthorized)
			return
		}
		if q := r.URL.Query().Get("q"); q != "" && q != "London" {
			http.Error(w, `{"cod":"404","message":"city not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"name": "London",
			"coord": {"lat": 51.51, "lon": -0.13},
			"sys": {"country": "GB"},
			"main": {"temp": 15.6, "feels_like": 14.2, "humidity": 82, "pressure": 1012},
			"weather": [{"description": "light rain", "icon": "10d"}],
			"wind": {"speed": 4.1},
			"clouds": {"all": 75},
			"visibility": 10000
		}`)
	})
	mux.HandleFunc("GET /forecast", func(w http.ResponseWriter, r *http.Request) {
		start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
		type sample struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp    float64 `json:"temp"`
				TempMin float64 `json:"temp_min"`
				TempMax float64 `json:"temp_max"`
			} `json:"main"`
			Weather []map[string]string `json:"weather"`
		}
		var list []sample
		for i := 0; i < 40; i++ {
			var s sample
			s.Dt = start.Add(time.Duration(i) * 3 * time.Hour).Unix()
			s.Main.Temp, s.Main.TempMin, s.Main.TempMax = 10, 5, 16
			s.Weather = []map[string]string{{"description": "clear sky", "icon": "01d"}}
			list = append(list, s)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"list": list})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func getBody(t *testing.T, client *http.Client, url string) string {
	t.Helper()

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status=%d", url, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func repoRootPath(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	repo := filepath.Clean(filepath.Join(wd, repoRootRel))
	if _, err := os.Stat(filepath.Join(repo, "go.mod")); err != nil {
		t.Fatalf("repo root %q does not contain go.mod: %v", repo, err)
	}
	return repo
}

func buildBinary(t *testing.T, repoRoot string) string {
	t.Helper()

	out := filepath.Join(t.TempDir(), "skyboard")
	build := exec.Command("go", "build", "-o", out, mainPkgRel)
	build.Dir = repoRoot
	build.Env = os.Environ()

	if b, err := build.CombinedOutput(); err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(b))
	}
	return out
}

func pickFreeAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen :0: %v", err)
	}
	defer ln.Close()
	return ln.Addr().String()
}

func waitForOK(t *testing.T, client *http.Client, url string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server not healthy after %s: %s", timeout, url)
}

func stopServer(t *testing.T, cmd *exec.Cmd) {
	t.Helper()

	_ = cmd.Process.Signal(syscall.SIGTERM)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		t.Fatalf("server did not exit in time")
	case err := <-done:
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				t.Fatalf("server exited non-zero: %v", err)
			}
			t.Fatalf("server wait error: %v", err)
		}
	}
}

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/provkit/provisiond/internal/announce"
	"github.com/provkit/provisiond/internal/payload"
)

// Command flags
var (
	deviceIP    string
	devicePort  int
	scanTimeout int
	ssid        string
	secret      string
	follow      bool
)

func init() {
	// Common flags for agent commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&deviceIP, "device", "", "Agent IP address (skips discovery)")
	rootCmd.PersistentFlags().IntVar(&devicePort, "port", 80, "Agent HTTP port")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(displayCmd)
	rootCmd.AddCommand(watchCmd)
}

// scanCmd discovers agents on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for provisioning agents on the network",
	Long: `Scan for provisioning agents using mDNS/DNS-SD discovery.

Agents advertise a "_provisiond._tcp" service. Each discovered agent
is listed with its address and the state it reported when it came up.`,
	Example: `  # Scan for 10 seconds (default)
  provisiond-cfg scan

  # Quick 3-second scan
  provisiond-cfg scan --timeout 3`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for provisioning agents (timeout: %ds)...\n\n", scanTimeout)

	scanner := announce.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second
	agents, err := scanner.ScanForAgents()
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(agents) == 0 {
		fmt.Println("No agents found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the device is powered on")
		fmt.Println("  - A device in setup mode advertises on its own access point;")
		fmt.Println("    connect to that network first")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --device to specify the IP manually if discovery fails")
		return nil
	}

	fmt.Printf("Found %d agent(s):\n\n", len(agents))

	for i, agent := range agents {
		fmt.Printf("%d. %s\n", i+1, agent.Instance)
		fmt.Printf("   Address: %s:%d\n", agent.IP, agent.Port)
		if state := agent.GetMetadata("state"); state != "" {
			fmt.Printf("   State:   %s\n", state)
		}
		if v := agent.GetMetadata("version"); v != "" {
			fmt.Printf("   Version: %s\n", v)
		}
		fmt.Println()
	}

	fmt.Println("Use 'provisiond-cfg send --ssid <network>' to provision an agent")

	return nil
}

// pingCmd checks that an agent is reachable
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that an agent is reachable",
	Example: `  # Ping with auto-discovery
  provisiond-cfg ping

  # Ping a specific agent
  provisiond-cfg ping --device 192.168.4.1`,
	RunE: runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
	base, err := agentBaseURL()
	if err != nil {
		return err
	}

	start := time.Now()
	status, body, err := httpGet(base + "/")
	if err != nil {
		return fmt.Errorf("agent unreachable: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected response: %d %s", status, body)
	}

	fmt.Printf("%s responded in %s: %s\n", base, time.Since(start).Round(time.Millisecond), body)
	return nil
}

// encryptCmd produces a credential payload without sending it
var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt WiFi credentials into a payload",
	Long: `Encrypt WiFi credentials into the payload format the agent accepts.

The passphrase is prompted interactively unless --secret is given.
Prints the base64 payload on stdout; useful for scripting or for
submitting through another channel.`,
	Example: `  # Prompt for the passphrase
  provisiond-cfg encrypt --ssid HomeNet

  # Non-interactive (the passphrase lands in your shell history)
  provisiond-cfg encrypt --ssid HomeNet --secret hunter22`,
	RunE: runEncrypt,
}

func init() {
	encryptCmd.Flags().StringVar(&ssid, "ssid", "", "Network name (required)")
	encryptCmd.Flags().StringVar(&secret, "secret", "", "Network passphrase (prompted if omitted)")
	encryptCmd.MarkFlagRequired("ssid")
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	encoded, err := buildPayload()
	if err != nil {
		return err
	}
	fmt.Println(encoded)
	return nil
}

// sendCmd encrypts and submits credentials to an agent
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Provision an agent with WiFi credentials",
	Long: `Encrypt WiFi credentials and submit them to an agent.

The agent acknowledges the request as soon as the payload validates,
then attempts the join in the background. Use --watch to stay attached
to the agent's status stream and see the outcome; note that once the
join succeeds the device moves to the target network, so a watcher on
the setup access point loses its connection around the same moment.`,
	Example: `  # Provision with auto-discovery, prompting for the passphrase
  provisiond-cfg send --ssid HomeNet

  # Provision a specific agent and follow the outcome
  provisiond-cfg send --device 192.168.4.1 --ssid HomeNet --watch`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&ssid, "ssid", "", "Network name (required)")
	sendCmd.Flags().StringVar(&secret, "secret", "", "Network passphrase (prompted if omitted)")
	sendCmd.Flags().BoolVar(&follow, "watch", false, "Follow the status stream after sending")
	sendCmd.MarkFlagRequired("ssid")
}

func runSend(cmd *cobra.Command, args []string) error {
	base, err := agentBaseURL()
	if err != nil {
		return err
	}

	encoded, err := buildPayload()
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{"data": encoded})
	if err != nil {
		return err
	}

	fmt.Printf("Submitting credentials for %q to %s...\n", ssid, base)

	resp, err := http.Post(base+"/set_wifi", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("agent rejected the payload: %d %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	fmt.Printf("✓ %s\n", strings.TrimSpace(string(text)))

	if follow {
		fmt.Println()
		return watchStatus(base)
	}

	fmt.Println("The agent is attempting the join in the background.")
	fmt.Println("Use 'provisiond-cfg watch' to follow its status stream.")
	return nil
}

// displayCmd shows a message on the agent's status panel
var displayCmd = &cobra.Command{
	Use:   "display <message>",
	Short: "Show a message on the agent's status panel",
	Example: `  # Show a message on a specific agent
  provisiond-cfg display "Hello from the bench" --device 192.168.4.1`,
	Args: cobra.ExactArgs(1),
	RunE: runDisplay,
}

func runDisplay(cmd *cobra.Command, args []string) error {
	base, err := agentBaseURL()
	if err != nil {
		return err
	}

	status, body, err := httpGet(base + "/display?msg=" + url.QueryEscape(args[0]))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected response: %d %s", status, body)
	}

	fmt.Println(body)
	return nil
}

// watchCmd follows an agent's status stream
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow an agent's connection state live",
	Long: `Attach to the agent's WebSocket status stream and print state
changes as they happen. Interrupt with Ctrl-C.`,
	Example: `  # Watch a specific agent
  provisiond-cfg watch --device 192.168.4.1`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	base, err := agentBaseURL()
	if err != nil {
		return err
	}
	return watchStatus(base)
}

// statusEvent mirrors the agent's /status stream frames.
type statusEvent struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

func watchStatus(base string) error {
	wsURL := "ws" + strings.TrimPrefix(base, "http") + "/status"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to status stream: %w", err)
	}
	defer conn.Close()

	// Close the stream on Ctrl-C so ReadJSON unblocks
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-interrupt
		conn.Close()
	}()

	fmt.Printf("Watching %s (Ctrl-C to stop)...\n\n", wsURL)

	for {
		var ev statusEvent
		if err := conn.ReadJSON(&ev); err != nil {
			// A device that just joined the home network drops off its
			// setup access point, taking this stream with it
			fmt.Println("\nStream closed.")
			return nil
		}
		ts := time.Now().Format("15:04:05")
		if ev.Message != "" {
			fmt.Printf("[%s] %-12s %s\n", ts, ev.State, ev.Message)
		} else {
			fmt.Printf("[%s] %s\n", ts, ev.State)
		}
	}
}

// buildPayload assembles and encrypts the NAME|SECRET credential pair.
func buildPayload() (string, error) {
	pass := secret
	if pass == "" {
		p, err := promptSecret(fmt.Sprintf("Passphrase for %q: ", ssid))
		if err != nil {
			return "", err
		}
		pass = p
	}

	if strings.Contains(ssid, "|") {
		return "", fmt.Errorf("network name must not contain '|'")
	}

	encoded, err := payload.Encrypt([]byte(ssid + "|" + pass))
	if err != nil {
		return "", fmt.Errorf("failed to encrypt credentials: %w", err)
	}
	return encoded, nil
}

// promptSecret reads a passphrase without echo when stdin is a
// terminal, and falls back to a plain line read when piped.
func promptSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase: %w", err)
		}
		return string(raw), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// agentBaseURL resolves the target agent via the --device flag or
// mDNS discovery when exactly one agent is on the network.
func agentBaseURL() (string, error) {
	if deviceIP != "" {
		return fmt.Sprintf("http://%s:%d", deviceIP, devicePort), nil
	}

	fmt.Println("No agent specified, attempting auto-discovery...")
	scanner := announce.NewScanner()
	scanner.Timeout = 5 * time.Second
	agents, err := scanner.ScanForAgents()
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}

	if len(agents) == 0 {
		return "", fmt.Errorf("no agents found. Use --device to specify the IP manually")
	}

	if len(agents) > 1 {
		fmt.Printf("Found %d agents:\n", len(agents))
		for i, agent := range agents {
			fmt.Printf("%d. %s (%s)\n", i+1, agent.Instance, agent.IP)
		}
		return "", fmt.Errorf("multiple agents found. Use --device to specify which one")
	}

	agent := agents[0]
	fmt.Printf("Found agent: %s (%s)\n\n", agent.Instance, agent.IP)
	return agent.BaseURL(), nil
}

func httpGet(url string) (int, string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, strings.TrimSpace(string(body)), nil
}

package radio

import (
	"fmt"
	"net"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/provkit/provisiond/internal/logging"
)

// WPACLIDriver drives a real wireless interface on embedded Linux through
// the wpa_cli control utility. Station association goes through
// wpa_supplicant; broadcast mode reconfigures the interface for an open
// hostapd-style AP via wpa_supplicant's AP mode (mode=2 network block).
type WPACLIDriver struct {
	// Interface is the wireless interface name, e.g. "wlan0".
	Interface string

	// Binary is the wpa_cli executable. Defaults to "wpa_cli".
	Binary string
}

// NewWPACLIDriver creates a driver for the given interface.
func NewWPACLIDriver(iface string) *WPACLIDriver {
	return &WPACLIDriver{Interface: iface, Binary: "wpa_cli"}
}

func (d *WPACLIDriver) run(args ...string) (string, error) {
	bin := d.Binary
	if bin == "" {
		bin = "wpa_cli"
	}
	full := append([]string{"-i", d.Interface}, args...)

	out, err := exec.Command(bin, full...).CombinedOutput()
	text := strings.TrimSpace(string(out))
	logging.Debug("wpa_cli",
		zap.Strings("args", full),
		zap.String("output", text),
		zap.Error(err),
	)
	if err != nil {
		return text, fmt.Errorf("wpa_cli %s failed: %w (%s)", strings.Join(args, " "), err, text)
	}
	if strings.HasPrefix(text, "FAIL") {
		return text, fmt.Errorf("wpa_cli %s returned %s", strings.Join(args, " "), text)
	}
	return text, nil
}

// configureNetwork replaces all configured networks with a single block.
func (d *WPACLIDriver) configureNetwork(vars map[string]string) error {
	if _, err := d.run("remove_network", "all"); err != nil {
		return err
	}
	id, err := d.run("add_network")
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)

	for key, value := range vars {
		if _, err := d.run("set_network", id, key, value); err != nil {
			return err
		}
	}
	if _, err := d.run("enable_network", id); err != nil {
		return err
	}
	return nil
}

func (d *WPACLIDriver) StartAccessPoint(ssid, passphrase string) (net.IP, error) {
	vars := map[string]string{
		"ssid": fmt.Sprintf("%q", ssid),
		"mode": "2",
	}
	if passphrase != "" {
		vars["psk"] = fmt.Sprintf("%q", passphrase)
		vars["key_mgmt"] = "WPA-PSK"
	} else {
		vars["key_mgmt"] = "NONE"
	}

	if err := d.configureNetwork(vars); err != nil {
		return nil, err
	}
	return d.interfaceIP(), nil
}

func (d *WPACLIDriver) Join(ssid, passphrase string) error {
	if _, err := d.run("disconnect"); err != nil {
		return err
	}
	vars := map[string]string{
		"ssid": fmt.Sprintf("%q", ssid),
		"psk":  fmt.Sprintf("%q", passphrase),
	}
	if err := d.configureNetwork(vars); err != nil {
		return err
	}
	_, err := d.run("reconnect")
	return err
}

func (d *WPACLIDriver) Status() LinkStatus {
	out, err := d.run("status")
	if err != nil {
		return LinkDown
	}

	for _, line := range strings.Split(out, "\n") {
		value, ok := strings.CutPrefix(line, "wpa_state=")
		if !ok {
			continue
		}
		switch value {
		case "COMPLETED":
			return LinkUp
		case "SCANNING", "AUTHENTICATING", "ASSOCIATING", "ASSOCIATED",
			"4WAY_HANDSHAKE", "GROUP_HANDSHAKE":
			return LinkConnecting
		case "DISCONNECTED", "INACTIVE", "INTERFACE_DISABLED":
			return LinkDown
		default:
			return LinkIdle
		}
	}
	return LinkIdle
}

func (d *WPACLIDriver) LocalIP() net.IP {
	if d.Status() != LinkUp {
		return nil
	}
	return d.interfaceIP()
}

func (d *WPACLIDriver) Disconnect() error {
	if _, err := d.run("disconnect"); err != nil {
		return err
	}
	_, err := d.run("remove_network", "all")
	return err
}

// interfaceIP returns the first IPv4 address assigned to the interface.
func (d *WPACLIDriver) interfaceIP() net.IP {
	iface, err := net.InterfaceByName(d.Interface)
	if err != nil {
		return nil
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok {
			if v4 := ipnet.IP.To4(); v4 != nil {
				return v4
			}
		}
	}
	return nil
}

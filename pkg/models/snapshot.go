package models

// Snapshot is one complete point-in-time collection of host facts.
// Every field is populated; probes that could not determine a value leave
// the documented sentinel ("Unknown", "", empty slice, or null).
type Snapshot struct {
	SnapshotID    string        `json:"snapshot_id"`
	CPU           CPUInfo       `json:"cpu"`
	Memory        MemoryInfo    `json:"memory"`
	LoadAvg       LoadAverage   `json:"load_avg"`
	Disks         []DiskInfo    `json:"disks"`
	Network       NetworkInfo   `json:"network"`
	UserAccess    UserAccess    `json:"user_access"`
	Services      []ServiceInfo `json:"services"`
	Security      SecurityInfo  `json:"security"`
	Hardware      HardwareInfo  `json:"hardware"`
	SystemUptime  UptimeInfo    `json:"system_uptime"`
	Platform      PlatformInfo  `json:"platform"`
	Hostname      string        `json:"hostname"`
	KernelVersion string        `json:"kernel_version"`
	OSVersion     string        `json:"os_version"`
	ProcessList   []ProcessInfo `json:"process_list"`
	Timestamp     string        `json:"timestamp"`
}

// CPUInfo holds aggregate CPU utilisation.
type CPUInfo struct {
	UsagePercent       float32  `json:"usage_percent"`
	TemperatureCelsius *float32 `json:"temperature_celsius"`
	FrequencyMHz       float32  `json:"frequency_mhz"`
}

// MemoryInfo holds physical memory usage in mebibytes.
type MemoryInfo struct {
	TotalMB uint64 `json:"total_mb"`
	UsedMB  uint64 `json:"used_mb"`
	FreeMB  uint64 `json:"free_mb"`
}

// LoadAverage holds the 1, 5 and 15 minute run-queue averages.
type LoadAverage struct {
	One     float64 `json:"one"`
	Five    float64 `json:"five"`
	Fifteen float64 `json:"fifteen"`
}

// DiskInfo describes one mounted filesystem. Sizes are in gibibytes.
type DiskInfo struct {
	Name       string  `json:"name"`
	TotalGB    float64 `json:"total_gb"`
	UsedGB     float64 `json:"used_gb"`
	FreeGB     float64 `json:"free_gb"`
	MountPoint string  `json:"mount_point"`
}

// NetworkInfo groups all kernel-reported interfaces.
type NetworkInfo struct {
	Interfaces []NetworkInterface `json:"interfaces"`
}

// NetworkInterface is one interface with its addresses and cumulative
// byte counters since the interface came up.
type NetworkInterface struct {
	Name        string   `json:"name"`
	IPAddresses []string `json:"ip_addresses"`
	RxBytes     uint64   `json:"rx_bytes"`
	TxBytes     uint64   `json:"tx_bytes"`
}

// UserAccess summarises login activity.
type UserAccess struct {
	LastSSHLogins []string `json:"last_ssh_logins"`
	ActiveUsers   []string `json:"active_users"`
	SudoUsers     []string `json:"sudo_users"`
}

// ServiceInfo is the resolved state of one supervised service.
// Active and Enabled are independent.
type ServiceInfo struct {
	Name    string  `json:"name"`
	Active  bool    `json:"active"`
	Enabled bool    `json:"enabled"`
	Version *string `json:"version"`
}

// SecurityInfo is the host's security posture.
type SecurityInfo struct {
	FirewallEnabled bool     `json:"firewall_enabled"`
	Fail2banActive  bool     `json:"fail2ban_active"`
	OpenPorts       []uint16 `json:"open_ports"`
	PackageUpdates  []string `json:"package_updates"`
}

// HardwareInfo identifies the machine.
type HardwareInfo struct {
	CPUModel     string   `json:"cpu_model"`
	Cores        uint32   `json:"cores"`
	TotalRAMMB   uint64   `json:"total_ram_mb"`
	DiskInfo     []string `json:"disk_info"`
	SystemVendor string   `json:"system_vendor"`
	SystemModel  string   `json:"system_model"`
}

// UptimeInfo carries the current uptime line, last boot line and the
// reconstructed reboot history.
type UptimeInfo struct {
	CurrentUptime string       `json:"current_uptime"`
	LastBootTime  string       `json:"last_boot_time"`
	RebootHistory []BootRecord `json:"reboot_history"`
}

// BootRecord is one boot or reboot event. Records from different sources
// may describe the same event.
type BootRecord struct {
	Timestamp string  `json:"timestamp"`
	Reason    *string `json:"reason"`
}

// ProcessInfo is one live process taken from the kernel process table.
type ProcessInfo struct {
	PID         int32   `json:"pid"`
	Name        string  `json:"name"`
	CPUUsage    float32 `json:"cpu_usage"`
	MemoryUsage uint64  `json:"memory_usage"`
	Status      string  `json:"status"`
	User        string  `json:"user"`
	Command     string  `json:"command"`
}

// PlatformInfo records which package manager and service supervision
// style the snapshot was collected with.
type PlatformInfo struct {
	PackageManager string `json:"package_manager"`
	ServiceStyle   string `json:"service_style"`
}

// Unknown is the sentinel for identity strings that could not be determined.
const Unknown = "Unknown"

package banner

import "fmt"

const banner = `
██████╗ ███████╗ ██████╗ █████╗ ██╗     ██╗
██╔══██╗██╔════╝██╔════╝██╔══██╗██║     ██║
██████╔╝█████╗  ██║     ███████║██║     ██║
██╔══██╗██╔══╝  ██║     ██╔══██║██║     ██║
██║  ██║███████╗╚██████╗██║  ██║███████╗███████╗
╚═╝  ╚═╝╚══════╝ ╚═════╝╚═╝  ╚═╝╚══════╝╚══════╝
`

// Print writes the startup banner with the effective runtime values.
func Print(addr, dbPath, agentName, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	fmt.Printf("Agent:    %s\n", agentName)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Println("===============================================================")
}

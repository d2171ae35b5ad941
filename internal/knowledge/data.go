package knowledge

import "github.com/deskd-io/deskd/pkg/protocol"

// Default returns the built-in helpdesk corpus: six full troubleshooting
// guides plus the curated pinned FAQ answers. External YAML packs extend
// or replace it via the loader chain.
func Default() StaticLoader {
	return StaticLoader(defaultArticles)
}

var defaultArticles = []protocol.KnowledgeArticle{
	{
		ID:       "kb001",
		Title:    "Password Reset Guide",
		Category: protocol.CategoryAccount,
		Keywords: []string{"password", "reset", "login", "security", "forgot"},
		Related:  []string{"faq001", "faq010"},
		Body: `Step-by-step password reset process:
1. Go to the IT portal (portal.company.com)
2. Click 'Forgot Password' or 'Reset Password'
3. Enter your username or email address
4. Check your email for the reset link (may take 5-10 minutes)
5. Click the link and create a new password
6. Password must be 8+ characters with uppercase, lowercase, numbers, and symbols
7. Confirm the new password and try logging in with the new credentials`,
	},
	{
		ID:       "kb002",
		Title:    "VPN Connection Troubleshooting",
		Category: protocol.CategoryNetwork,
		Keywords: []string{"vpn", "connection", "remote", "network", "cisco"},
		Related:  []string{"faq002"},
		Body: `VPN troubleshooting steps:
1. Check your internet connection (try browsing other websites)
2. Ensure the VPN client is updated to the latest version
3. Restart the VPN application completely
4. Try connecting to a different VPN server location
5. Temporarily disable the local firewall to test
6. Clear the DNS cache: open an admin prompt and run 'ipconfig /flushdns'
7. Reset network adapters with 'netsh winsock reset' and restart
8. Check with the network admin about server maintenance
9. On corporate laptops, verify company certificates are installed`,
	},
	{
		ID:       "kb003",
		Title:    "Email Setup and Synchronization",
		Category: protocol.CategoryEmail,
		Keywords: []string{"outlook", "email", "sync", "exchange", "office365"},
		Related:  []string{"faq003", "faq004"},
		Body: `Outlook email setup and sync issues:
1. Verify internet connection and Exchange server status
2. Check mailbox storage limits (the mailbox may be full)
3. Re-authenticate: File > Account Settings > select account > Change
4. Repair the Outlook data file with scanpst.exe after closing Outlook
5. Create a new Outlook profile if corruption is suspected
6. For Office 365, sign out and sign back in
7. Check for Outlook updates
8. Temporarily disable antivirus email scanning
9. Contact IT if server settings need verification`,
	},
	{
		ID:       "kb004",
		Title:    "Wi-Fi Connection and Speed Issues",
		Category: protocol.CategoryNetwork,
		Keywords: []string{"wifi", "wireless", "slow", "connection", "network"},
		Related:  []string{"faq005", "faq009"},
		Body: `Wi-Fi troubleshooting guide:
1. Check signal strength and move closer to the router if weak
2. Disable and re-enable the Wi-Fi adapter
3. Forget the network, then reconnect with the password
4. Update Wi-Fi drivers through Device Manager
5. Reset network settings: 'netsh int ip reset' and 'netsh winsock reset'
6. Change DNS servers to 8.8.8.8 and 8.8.4.4
7. Check for interference from other devices
8. Contact the network admin about router or access point issues`,
	},
	{
		ID:       "kb005",
		Title:    "Printer Setup and Troubleshooting",
		Category: protocol.CategoryHardware,
		Keywords: []string{"printer", "printing", "driver", "network", "queue"},
		Related:  []string{"faq006"},
		Body: `Printer setup and common issues:
1. Install the latest drivers from the manufacturer website
2. Add a network printer via Settings > Devices > Printers & Scanners
3. For stuck jobs, check the queue and restart the Print Spooler service
4. For paper jams, power off, remove all paper carefully, check for torn
   pieces, clean the rollers, and reload paper properly
5. For quality issues, clean and align the print heads and check
   ink/toner levels`,
	},
	{
		ID:       "kb006",
		Title:    "Software Installation and Updates",
		Category: protocol.CategorySoftware,
		Keywords: []string{"install", "software", "update", "administrator", "permissions"},
		Related:  []string{"faq007"},
		Body: `Software installation troubleshooting:
1. Run the installer as Administrator
2. Check system requirements: OS compatibility, RAM, disk space
3. Temporarily disable antivirus during installation
4. Clear temporary files with Disk Cleanup
5. Check the Windows Installer service in services.msc
6. Download a fresh installer if corruption is suspected
7. For corporate software, request a deployment package from IT
8. Check Group Policy restrictions with the IT admin`,
	},

	// Pinned FAQ answers: short curated responses that outrank long
	// guides for direct questions and seed the empty-search fallback.
	{
		ID:       "faq001",
		Title:    "How do I reset my password?",
		Category: protocol.CategoryAccount,
		Keywords: []string{"password", "reset", "forgot", "login"},
		Related:  []string{"kb001"},
		Pinned:   true,
		Body:     "Visit the IT portal at portal.company.com, click 'Forgot Password', enter your username, and check your email for reset instructions. The new password must be 8+ characters with mixed case, numbers, and symbols.",
	},
	{
		ID:       "faq002",
		Title:    "VPN is not connecting",
		Category: protocol.CategoryNetwork,
		Keywords: []string{"vpn", "connect", "remote"},
		Related:  []string{"kb002"},
		Pinned:   true,
		Body:     "First check your internet connection, then restart the VPN client. If that doesn't work, try a different server location or contact IT to verify server status.",
	},
	{
		ID:       "faq003",
		Title:    "How to install Outlook?",
		Category: protocol.CategoryEmail,
		Keywords: []string{"outlook", "install", "office"},
		Related:  []string{"kb003"},
		Pinned:   true,
		Body:     "Download Outlook from the Office 365 portal, run the installer as administrator, and sign in with your corporate account. Contact IT if you need help with server settings.",
	},
	{
		ID:       "faq004",
		Title:    "Email not syncing",
		Category: protocol.CategoryEmail,
		Keywords: []string{"email", "sync", "outlook", "mailbox"},
		Related:  []string{"kb003"},
		Pinned:   true,
		Body:     "Check if your mailbox is full, verify the internet connection, and try re-authenticating your account in Outlook settings. You may also need to repair your Outlook data file.",
	},
	{
		ID:       "faq005",
		Title:    "Wi-Fi is slow or not working",
		Category: protocol.CategoryNetwork,
		Keywords: []string{"wifi", "slow", "wireless"},
		Related:  []string{"kb004"},
		Pinned:   true,
		Body:     "Move closer to the router, restart your Wi-Fi adapter, or forget and reconnect to the network. Updating the Wi-Fi drivers often helps as well.",
	},
	{
		ID:       "faq006",
		Title:    "Printer not working",
		Category: protocol.CategoryHardware,
		Keywords: []string{"printer", "printing"},
		Related:  []string{"kb005"},
		Pinned:   true,
		Body:     "Check that the printer is on and connected, clear any paper jams, and verify the drivers are installed. Restarting the Print Spooler service resolves most stuck queues.",
	},
	{
		ID:       "faq007",
		Title:    "Can't install software",
		Category: protocol.CategorySoftware,
		Keywords: []string{"install", "software", "permission"},
		Related:  []string{"kb006"},
		Pinned:   true,
		Body:     "Try running the installer as administrator, check system requirements, and temporarily disable antivirus software. Clear temporary files and download a fresh installer if needed.",
	},
	{
		ID:       "faq008",
		Title:    "Computer is running slow",
		Category: protocol.CategoryPerformance,
		Keywords: []string{"slow", "performance", "cpu", "memory"},
		Pinned:   true,
		Body:     "Close unnecessary programs, run disk cleanup, check for malware, and restart the computer. Task Manager shows which processes are consuming CPU or memory.",
	},
	{
		ID:       "faq009",
		Title:    "How to connect to company Wi-Fi?",
		Category: protocol.CategoryNetwork,
		Keywords: []string{"wifi", "company", "connect", "domain"},
		Related:  []string{"kb004"},
		Pinned:   true,
		Body:     "Select the company network, enter your domain credentials (DOMAIN\\username), and contact IT if you need the Wi-Fi password or a certificate installed.",
	},
	{
		ID:       "faq010",
		Title:    "Two-factor authentication setup",
		Category: protocol.CategorySecurity,
		Keywords: []string{"2fa", "authentication", "authenticator", "security"},
		Related:  []string{"kb001"},
		Pinned:   true,
		Body:     "Download the Microsoft Authenticator app, scan the QR code from your account settings, and enter the verification code. Keep the backup codes somewhere safe.",
	},
}

package flow

import "github.com/deskd-io/deskd/pkg/protocol"

// Builtin returns the stock troubleshooting flows. Deployments can add
// or override flows through YAML packs.
func Builtin() []protocol.FlowDefinition {
	return []protocol.FlowDefinition{wifiFlow, printerFlow, emailFlow}
}

var wifiFlow = protocol.FlowDefinition{
	ID:       "wifi",
	Title:    "Wi-Fi Troubleshooting",
	Category: protocol.CategoryNetwork,
	Triggers: []string{"troubleshoot wifi", "troubleshoot wi-fi", "wifi not working", "wifi keeps dropping", "fix my wifi", "wifi problem"},
	Steps: []protocol.Step{
		{
			ID:     "adapter_on",
			Prompt: "Is the Wi-Fi adapter turned on? Check the system tray for the Wi-Fi icon.",
			Kind:   protocol.StepYesNo,
			Branches: []protocol.Branch{
				{Answer: "yes", NextStepID: "sees_network"},
				{Answer: "no", Solution: "Turn Wi-Fi on from the network icon in the system tray (or the physical switch on the laptop), then connect to your network."},
			},
		},
		{
			ID:     "sees_network",
			Prompt: "Can you see your network in the list of available networks?",
			Kind:   protocol.StepYesNo,
			Branches: []protocol.Branch{
				{Answer: "yes", NextStepID: "connect_result"},
				{Answer: "no", Solution: "The access point may be down. Move closer to the router, or restart the router if you have access to it. If other networks are visible but not yours, contact the network admin."},
			},
		},
		{
			ID:     "connect_result",
			Prompt: "What happens when you try to connect?",
			Kind:   protocol.StepMultipleChoice,
			Branches: []protocol.Branch{
				{Answer: "wrong password error", Solution: "Forget the network (long-press or right-click it), then reconnect and re-enter the password. For the corporate network use DOMAIN\\username."},
				{Answer: "connects but no internet", Solution: "Release and renew the IP: run 'ipconfig /release' then 'ipconfig /renew' in a command prompt, and flush DNS with 'ipconfig /flushdns'. If that fails, restart the router."},
				{Answer: "keeps disconnecting", Solution: "Update the Wi-Fi driver through Device Manager and disable power saving for the adapter (Adapter properties > Power Management)."},
				{Answer: "nothing happens", Solution: "Restart the computer with the router powered off, then power the router back on and try again. If it still fails, open a ticket so a technician can check the adapter."},
			},
		},
	},
}

var printerFlow = protocol.FlowDefinition{
	ID:       "printer",
	Title:    "Printer Troubleshooting",
	Category: protocol.CategoryHardware,
	Triggers: []string{"troubleshoot printer", "printer not working", "printer won't print", "fix the printer", "printer problem"},
	Steps: []protocol.Step{
		{
			ID:     "powered_on",
			Prompt: "Is the printer powered on and showing a ready light?",
			Kind:   protocol.StepYesNo,
			Branches: []protocol.Branch{
				{Answer: "yes", NextStepID: "error_shown"},
				{Answer: "no", Solution: "Plug the printer in and power it on. If it shows an error light instead of ready, note the blink pattern and check the panel message."},
			},
		},
		{
			ID:     "error_shown",
			Prompt: "Is the printer display showing an error message?",
			Kind:   protocol.StepYesNo,
			Branches: []protocol.Branch{
				{Answer: "yes", NextStepID: "which_error"},
				{Answer: "no", NextStepID: "queue_stuck"},
			},
		},
		{
			ID:     "which_error",
			Prompt: "Which error is it showing?",
			Kind:   protocol.StepMultipleChoice,
			Branches: []protocol.Branch{
				{Answer: "paper jam", Solution: "Power the printer off, open the covers, and remove all paper gently in the direction of travel. Check for torn pieces, then reload the tray and power back on."},
				{Answer: "low toner or ink", Solution: "Replace the toner or ink cartridge. Spares are in the supply cabinet; open a ticket if none are left."},
				{Answer: "offline", Solution: "On your computer open Printers & Scanners, select the printer, and untick 'Use Printer Offline'. If it stays offline, restart the Print Spooler service."},
				{Answer: "other error", Solution: "Note the exact error code from the display and open a ticket so a technician can look it up."},
			},
		},
		{
			ID:     "queue_stuck",
			Prompt: "Do your print jobs appear in the queue but never print?",
			Kind:   protocol.StepYesNo,
			Branches: []protocol.Branch{
				{Answer: "yes", Solution: "Cancel all jobs in the queue, then restart the Print Spooler service (services.msc > Print Spooler > Restart) and print a test page."},
				{Answer: "no", Solution: "Reinstall the printer: remove it from Printers & Scanners, then re-add it and let Windows fetch the current driver. Open a ticket if it still will not print."},
			},
		},
	},
}

var emailFlow = protocol.FlowDefinition{
	ID:       "email",
	Title:    "Outlook Email Troubleshooting",
	Category: protocol.CategoryEmail,
	Triggers: []string{"troubleshoot email", "troubleshoot outlook", "email not working", "outlook not working", "email problem", "outlook problem"},
	Steps: []protocol.Step{
		{
			ID:     "outlook_opens",
			Prompt: "Does Outlook open without errors?",
			Kind:   protocol.StepYesNo,
			Branches: []protocol.Branch{
				{Answer: "yes", NextStepID: "symptom"},
				{Answer: "no", Solution: "Start Outlook in safe mode: press Win+R, type 'outlook /safe', and press Enter. If safe mode works, disable recently added add-ins. If it still fails, repair Office from Apps & Features."},
			},
		},
		{
			ID:     "symptom",
			Prompt: "What is the main symptom?",
			Kind:   protocol.StepMultipleChoice,
			Branches: []protocol.Branch{
				{Answer: "not receiving mail", NextStepID: "connected"},
				{Answer: "cannot send mail", Solution: "Check the Outbox for stuck messages and remove oversized attachments (over 25 MB). Then verify the connection status in the bottom bar and try Send/Receive All."},
				{Answer: "password prompt keeps appearing", Solution: "Sign out and back in: File > Office Account > Sign out, restart Outlook, and sign in again. If the loop continues, clear saved credentials in Windows Credential Manager."},
				{Answer: "calendar or folders missing", Solution: "Re-sync the mailbox: right-click the mailbox root, choose Update Folder, or recreate the profile from Control Panel > Mail if folders remain missing."},
			},
		},
		{
			ID:     "connected",
			Prompt: "Does the bottom bar say 'Connected to: Microsoft Exchange'?",
			Kind:   protocol.StepYesNo,
			Branches: []protocol.Branch{
				{Answer: "yes", Solution: "Check mailbox storage under File > Tools > Mailbox Cleanup; a full mailbox stops delivery. Also check the Junk folder and any rules that may move incoming mail."},
				{Answer: "no", Solution: "Outlook is offline. Toggle Send/Receive > Work Offline off, verify your internet connection, and restart Outlook. If it will not reconnect, open a ticket."},
			},
		},
	},
}

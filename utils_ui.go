package main

import (
	"fmt"

	"github.com/fatih/color"
)

// CLI print helpers built on fatih/color, styled for chain/gossip/
// wallet output.

func PrintSuccess(format string, a ...interface{}) {
	color.Green("✅ "+format, a...)
}

func PrintError(format string, a ...interface{}) {
	color.Red("⛔ "+format, a...)
}

func PrintInfo(format string, a ...interface{}) {
	color.Cyan("ℹ️  "+format, a...)
}

func PrintWarning(format string, a ...interface{}) {
	color.Yellow("⚠️  "+format, a...)
}

func PrintMiner(format string, a ...interface{}) {
	c := color.New(color.FgYellow, color.Bold)
	c.Printf("⛏️  "+format+"\n", a...)
}

func PrintNetwork(format string, a ...interface{}) {
	c := color.New(color.FgBlue)
	c.Printf("🌐 "+format+"\n", a...)
}

// PrintBalance prints an address/balance pair as "address: balance",
// for the wallet balance CLI subcommand.
func PrintBalance(address string, balance int64) {
	c := color.New(color.FgGreen, color.Bold)
	c.Printf("%s: %s\n", address, fmt.Sprintf("%d", balance))
}

// PrintPeer prints a one-line peer summary.
func PrintPeer(p *Peer) {
	fmt.Printf("🔗 %s (%s:%d) height=%d last_seen=%s\n",
		p.NodeID, p.Host, p.Port, p.Height, p.LastSeen.Format("15:04:05"))
}

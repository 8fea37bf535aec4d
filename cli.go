package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

const (
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
)

var rootCmd = &cobra.Command{
	Use:   "marea-cli",
	Short: "Marea chain CLI",
	Long:  `Command line interface for the Marea peer-to-peer chain node.`,
}

var (
	addressFlag    string
	recipientFlag  string
	amountFlag     uint64
	feeFlag        uint64
	passwordFlag   string
	mnemonicFlag   string
	portFlag       int
	minerFlag      string
	connectFlag    string
	difficultyFlag int
	dataDirFlag    string
	configFlag     string
)

// Execute runs the root cobra command.
func Execute() {
	rootCmd.SetHelpFunc(printUsage)
	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		printUsage(cmd, nil)
		return nil
	})

	if len(os.Args) < 2 {
		rootCmd.Help()
		os.Exit(0)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printUsage(cmd *cobra.Command, args []string) {
	fmt.Println(colorGreen + `
   __  __   _   ____  _____    _
  |  \/  | / \ |  _ \| ____|  / \
  | |\/| |/ _ \| |_) |  _|   / _ \
  | |  | / ___ \  _ <| |___ / ___ \
  |_|  |_/_/   \_\_| \_\_____/_/   \_\
` + colorReset)
	fmt.Println(colorBold + "   marea-cli" + colorReset)
	fmt.Println()

	fmt.Println(colorBold + "USAGE:" + colorReset)
	fmt.Println("  ./marea-cli <resource> <action> [flags]")
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)

	fmt.Fprintln(w, colorYellow+"1. WALLET MANAGEMENT (wallet)"+colorReset)
	fmt.Fprintln(w, "  "+colorGreen+"create"+colorReset+"\tGenerates a new keypair (--password).")
	fmt.Fprintln(w, "  "+colorGreen+"recover"+colorReset+"\tRecovers a wallet from a mnemonic (--mnemonic, --password).")
	fmt.Fprintln(w, "  "+colorGreen+"list"+colorReset+"\tLists saved addresses.")
	fmt.Fprintln(w, "  "+colorGreen+"balance"+colorReset+"\tChecks an address's balance (--address).")
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, colorYellow+"2. CHAIN OPERATIONS (chain)"+colorReset)
	fmt.Fprintln(w, "  "+colorGreen+"print"+colorReset+"\tPrints every block in the chain.")
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, colorYellow+"3. NODE & NETWORK (node)"+colorReset)
	fmt.Fprintln(w, "  "+colorGreen+"start"+colorReset+"\tStarts the gossip node, optional miner, and REST API.")
	fmt.Fprintln(w, "\t"+colorCyan+"Flags:"+colorReset+" --port, --miner, --connect")
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, colorYellow+"4. TRANSACTIONS (tx)"+colorReset)
	fmt.Fprintln(w, "  "+colorGreen+"send"+colorReset+"\tCreates, signs, and submits a transaction.")
	fmt.Fprintln(w, "\t"+colorCyan+"Flags:"+colorReset+" --address, --recipient, --amount, --fee, --password")
	fmt.Fprintln(w, "")

	w.Flush()
	fmt.Println()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "./data", "Chain data directory")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to a config file")
	rootCmd.PersistentFlags().IntVar(&difficultyFlag, "difficulty", 4, "Initial mining difficulty")

	walletCmd := &cobra.Command{Use: "wallet", Short: "Manage wallets"}
	rootCmd.AddCommand(walletCmd)

	walletCreateCmd := &cobra.Command{Use: "create", Short: "Create a new wallet", Run: runWalletCreate}
	walletCreateCmd.Flags().StringVar(&passwordFlag, "password", "", "Password to encrypt the wallet")
	walletCreateCmd.MarkFlagRequired("password")
	walletCmd.AddCommand(walletCreateCmd)

	walletRecoverCmd := &cobra.Command{Use: "recover", Short: "Recover a wallet from a mnemonic", Run: runWalletRecover}
	walletRecoverCmd.Flags().StringVar(&mnemonicFlag, "mnemonic", "", "BIP-39 mnemonic phrase")
	walletRecoverCmd.Flags().StringVar(&passwordFlag, "password", "", "Password to encrypt the recovered wallet")
	walletRecoverCmd.MarkFlagRequired("mnemonic")
	walletRecoverCmd.MarkFlagRequired("password")
	walletCmd.AddCommand(walletRecoverCmd)

	walletListCmd := &cobra.Command{Use: "list", Short: "List saved addresses", Run: runWalletList}
	walletCmd.AddCommand(walletListCmd)

	walletBalanceCmd := &cobra.Command{Use: "balance", Short: "Check an address's balance", Run: runWalletBalance}
	walletBalanceCmd.Flags().StringVar(&addressFlag, "address", "", "Address to check")
	walletBalanceCmd.MarkFlagRequired("address")
	walletCmd.AddCommand(walletBalanceCmd)

	chainCmd := &cobra.Command{Use: "chain", Short: "Inspect the chain"}
	rootCmd.AddCommand(chainCmd)

	chainPrintCmd := &cobra.Command{Use: "print", Short: "Print every block", Run: runChainPrint}
	chainCmd.AddCommand(chainPrintCmd)

	nodeCmd := &cobra.Command{Use: "node", Short: "Run the gossip node"}
	rootCmd.AddCommand(nodeCmd)

	nodeStartCmd := &cobra.Command{Use: "start", Short: "Start the node", Run: runNodeStart}
	nodeStartCmd.Flags().IntVar(&portFlag, "port", 9000, "Gossip listen port")
	nodeStartCmd.Flags().StringVar(&minerFlag, "miner", "", "Address to receive mining rewards; enables mining when set")
	nodeStartCmd.Flags().StringVar(&connectFlag, "connect", "", "host:port of a peer to say HELLO to on startup")
	nodeCmd.AddCommand(nodeStartCmd)

	txCmd := &cobra.Command{Use: "tx", Short: "Manage transactions"}
	rootCmd.AddCommand(txCmd)

	txSendCmd := &cobra.Command{Use: "send", Short: "Send funds", Run: runTxSend}
	txSendCmd.Flags().StringVar(&addressFlag, "address", "", "Sender address")
	txSendCmd.Flags().StringVar(&recipientFlag, "recipient", "", "Recipient address")
	txSendCmd.Flags().Uint64Var(&amountFlag, "amount", 0, "Amount in base units")
	txSendCmd.Flags().Uint64Var(&feeFlag, "fee", 1, "Fee in base units")
	txSendCmd.Flags().StringVar(&passwordFlag, "password", "", "Sender wallet password")
	txSendCmd.MarkFlagRequired("address")
	txSendCmd.MarkFlagRequired("recipient")
	txSendCmd.MarkFlagRequired("amount")
	txSendCmd.MarkFlagRequired("password")
	txCmd.AddCommand(txSendCmd)
}

func loadConfigOrExit() *Config {
	cfg, err := LoadConfig(configFlag)
	if err != nil {
		PrintError("loading config: %v", err)
		os.Exit(1)
	}
	if rootCmd.PersistentFlags().Changed("data-dir") {
		cfg.DataDir = dataDirFlag
	}
	if rootCmd.PersistentFlags().Changed("difficulty") {
		cfg.Difficulty = difficultyFlag
	}
	return cfg
}

func runWalletCreate(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()
	log, _ := NewLogger(cfg.Debug)
	ws, err := OpenWalletStore(cfg.WalletFile, log)
	if err != nil {
		PrintError("opening wallet store: %v", err)
		os.Exit(1)
	}
	wallet, err := ws.CreateWallet(passwordFlag)
	if err != nil {
		PrintError("creating wallet: %v", err)
		os.Exit(1)
	}
	PrintSuccess("New wallet created: %s", wallet.Address)
}

func runWalletRecover(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()
	log, _ := NewLogger(cfg.Debug)
	ws, err := OpenWalletStore(cfg.WalletFile, log)
	if err != nil {
		PrintError("opening wallet store: %v", err)
		os.Exit(1)
	}
	wallet, err := ws.CreateWalletFromMnemonic(mnemonicFlag, "", passwordFlag)
	if err != nil {
		PrintError("recovering wallet: %v", err)
		os.Exit(1)
	}
	PrintSuccess("Wallet recovered: %s", wallet.Address)
}

func runWalletList(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()
	log, _ := NewLogger(cfg.Debug)
	ws, err := OpenWalletStore(cfg.WalletFile, log)
	if err != nil {
		PrintError("opening wallet store: %v", err)
		os.Exit(1)
	}
	for _, addr := range ws.Addresses() {
		fmt.Println(addr)
	}
}

func runWalletBalance(cmd *cobra.Command, args []string) {
	if !ValidateAddress(addressFlag) {
		PrintError("invalid address")
		os.Exit(1)
	}
	cfg := loadConfigOrExit()
	log, _ := NewLogger(cfg.Debug)
	node, err := NewNode(cfg, log)
	if err != nil {
		PrintError("opening chain: %v", err)
		os.Exit(1)
	}
	PrintBalance(addressFlag, node.Chain().GetBalance(addressFlag))
}

func runChainPrint(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()
	log, _ := NewLogger(cfg.Debug)
	node, err := NewNode(cfg, log)
	if err != nil {
		PrintError("opening chain: %v", err)
		os.Exit(1)
	}
	for i, block := range node.Chain().Blocks() {
		fmt.Printf("=== Block %d ===\n", i)
		fmt.Printf("Hash: %s\n", block.Hash)
		fmt.Printf("Previous: %s\n", block.PreviousHash)
		fmt.Printf("Valid: %s\n", strconv.FormatBool(block.IsValid()))
		fmt.Println("Transactions:")
		for _, tx := range block.Transactions {
			fmt.Printf("  %s -> %s : %d (fee %d)\n", tx.Sender, tx.Recipient, tx.Amount, tx.Fee)
		}
		fmt.Println()
	}
}

func runTxSend(cmd *cobra.Command, args []string) {
	if !ValidateAddress(addressFlag) || !ValidateAddress(recipientFlag) {
		PrintError("invalid address")
		os.Exit(1)
	}
	cfg := loadConfigOrExit()
	log, _ := NewLogger(cfg.Debug)

	ws, err := OpenWalletStore(cfg.WalletFile, log)
	if err != nil {
		PrintError("opening wallet store: %v", err)
		os.Exit(1)
	}
	wallet, err := ws.Unlock(addressFlag, passwordFlag)
	if err != nil {
		PrintError("unlocking wallet: %v", err)
		os.Exit(1)
	}

	tx, err := wallet.CreateTransaction(recipientFlag, amountFlag, feeFlag, nil)
	if err != nil {
		PrintError("creating transaction: %v", err)
		os.Exit(1)
	}
	if err := ws.Persist(wallet, passwordFlag); err != nil {
		PrintError("persisting updated nonce: %v", err)
		os.Exit(1)
	}

	node, err := NewNode(cfg, log)
	if err != nil {
		PrintError("opening chain: %v", err)
		os.Exit(1)
	}
	if node.Chain().AddTransaction(tx) {
		PrintSuccess("Transaction submitted: %s -> %s (%d)", tx.Sender, tx.Recipient, tx.Amount)
	} else {
		PrintError("transaction rejected by local mempool")
		os.Exit(1)
	}
}

func runNodeStart(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()
	cfg.ListenPort = portFlag
	log, err := NewLogger(cfg.Debug)
	if err != nil {
		PrintError("initializing logger: %v", err)
		os.Exit(1)
	}

	node, err := NewNode(cfg, log)
	if err != nil {
		PrintError("assembling node: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := node.Start(ctx, minerFlag); err != nil {
		PrintError("starting node: %v", err)
		os.Exit(1)
	}
	PrintNetwork("node listening on %s:%d", cfg.ListenHost, cfg.ListenPort)

	if connectFlag != "" {
		host, portStr, ok := strings.Cut(connectFlag, ":")
		if ok {
			if port, err := strconv.Atoi(portStr); err == nil {
				node.Connect(host, port)
			}
		}
	}

	go StartRestServer(node, cfg)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println()
	PrintWarning("shutting down")
	node.Stop()
	PrintSuccess("node stopped")
}

package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"worktool/lib/util/serviceutil"
	"worktool/services/credentials"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Printf("%s: ", label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

var loginCmd = &cobra.Command{
	Use:   "login <payslip|schedule>",
	Short: "Stores sealed login credentials for one of the portals.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, shutdown := setup(cmd.Context())
		defer shutdown()

		var idKey, pwKey string
		switch args[0] {
		case "payslip":
			idKey, pwKey = credentials.KeyPayslipID, credentials.KeyPayslipPW
		case "schedule":
			idKey, pwKey = credentials.KeyScheduleID, credentials.KeySchedulePW
		default:
			serviceutil.Fatal("unknown portal", fmt.Errorf("want payslip or schedule, got %q", args[0]))
		}

		reader := bufio.NewReader(os.Stdin)
		loginID := prompt(reader, "ログインID")
		password := prompt(reader, "パスワード")
		if loginID == "" || password == "" {
			serviceutil.Fatal("empty credentials", fmt.Errorf("both id and password are required"))
		}

		store := credentialStore(cfg)
		if err := store.Set(idKey, loginID); err != nil {
			serviceutil.Fatal("failed to store login id", err)
		}
		if err := store.Set(pwKey, password); err != nil {
			serviceutil.Fatal("failed to store password", err)
		}
		fmt.Println("保存しました")
	},
}

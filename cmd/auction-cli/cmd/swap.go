package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	swapPayer   string
	swapPayment string
)

// swapCmd 代表 swap 命令
var swapCmd = &cobra.Command{
	Use:   "swap <auction-id>",
	Short: "按当前价成交",
	Long:  `以不低于当前结算价的付款买下托管资产，超付部分自动退回。`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := callAPI("POST", "/api/v1/auctions/"+args[0]+"/swap", map[string]interface{}{
			"payer":          swapPayer,
			"payment_amount": swapPayment,
		})
		if err != nil {
			fmt.Printf("成交失败: %v\n", err)
			return
		}
		fmt.Println("成交成功:")
		printJSON(data)
	},
}

var cancelCaller string

// cancelCmd 代表 cancel 命令
var cancelCmd = &cobra.Command{
	Use:   "cancel <auction-id>",
	Short: "卖家撤单",
	Long:  `只有卖家本人可以撤单，托管资产原路退回。`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := callAPI("POST", "/api/v1/auctions/"+args[0]+"/cancel", map[string]interface{}{
			"caller": cancelCaller,
		})
		if err != nil {
			fmt.Printf("撤单失败: %v\n", err)
			return
		}
		fmt.Println("撤单成功:")
		printJSON(data)
	},
}

func init() {
	swapCmd.Flags().StringVar(&swapPayer, "payer", "", "买家账户")
	swapCmd.Flags().StringVar(&swapPayment, "payment", "", "付款金额")
	swapCmd.MarkFlagRequired("payer")
	swapCmd.MarkFlagRequired("payment")

	cancelCmd.Flags().StringVar(&cancelCaller, "caller", "", "发起撤单的账户 (必须是卖家)")
	cancelCmd.MarkFlagRequired("caller")

	rootCmd.AddCommand(swapCmd)
	rootCmd.AddCommand(cancelCmd)
}

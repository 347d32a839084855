package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// priceCmd 代表 price 命令
var priceCmd = &cobra.Command{
	Use:   "price <auction-id>",
	Short: "查询拍卖当前结算价",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := callAPI("GET", "/api/v1/auctions/"+args[0]+"/price", nil)
		if err != nil {
			fmt.Printf("查询价格失败: %v\n", err)
			return
		}
		printJSON(data)
	},
}

// getCmd 代表 get 命令
var getCmd = &cobra.Command{
	Use:   "get <auction-id>",
	Short: "查询拍卖完整记录",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := callAPI("GET", "/api/v1/auctions/"+args[0], nil)
		if err != nil {
			fmt.Printf("查询拍卖失败: %v\n", err)
			return
		}
		printJSON(data)
	},
}

// listCmd 代表 list 命令
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "列出拍卖",
	Run: func(cmd *cobra.Command, args []string) {
		path := "/api/v1/auctions"
		if listActiveOnly {
			path += "?active=true"
		}
		data, err := callAPI("GET", path, nil)
		if err != nil {
			fmt.Printf("查询列表失败: %v\n", err)
			return
		}
		printJSON(data)
	},
}

var listActiveOnly bool

func init() {
	listCmd.Flags().BoolVar(&listActiveOnly, "active", false, "只看进行中的拍卖")
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
}

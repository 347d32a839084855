package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	createSeller   string
	createToken    string
	createAmount   string
	createStart    string
	createEnd      string
	createDuration int64
)

// createCmd 代表 create 命令
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "创建一个新拍卖",
	Long:  `把指定数量的代币拉入托管，并以线性降价方式挂单出售。`,
	Run: func(cmd *cobra.Command, args []string) {
		data, err := callAPI("POST", "/api/v1/auctions", map[string]interface{}{
			"seller":        createSeller,
			"token_address": createToken,
			"token_amount":  createAmount,
			"start_price":   createStart,
			"end_price":     createEnd,
			"duration_secs": createDuration,
		})
		if err != nil {
			fmt.Printf("创建拍卖失败: %v\n", err)
			return
		}
		fmt.Println("拍卖已创建:")
		printJSON(data)
	},
}

func init() {
	createCmd.Flags().StringVar(&createSeller, "seller", "", "卖家账户")
	createCmd.Flags().StringVar(&createToken, "token", "", "代币合约地址")
	createCmd.Flags().StringVar(&createAmount, "amount", "", "托管数量")
	createCmd.Flags().StringVar(&createStart, "start-price", "", "起始价格")
	createCmd.Flags().StringVar(&createEnd, "end-price", "", "地板价格")
	createCmd.Flags().Int64Var(&createDuration, "duration", 3600, "降价时长 (秒)")
	createCmd.MarkFlagRequired("seller")
	createCmd.MarkFlagRequired("token")
	createCmd.MarkFlagRequired("amount")
	createCmd.MarkFlagRequired("start-price")
	createCmd.MarkFlagRequired("end-price")
	rootCmd.AddCommand(createCmd)
}

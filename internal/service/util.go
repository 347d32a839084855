package service

import "strconv"

// formatID 拍卖ID转分区键
func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

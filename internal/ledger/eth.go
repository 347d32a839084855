package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"auction-core/pkg/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ERC-20 方法选择器
var (
	selTransfer     = []byte{0xa9, 0x05, 0x9c, 0xbb} // transfer(address,uint256)
	selTransferFrom = []byte{0x23, 0xb8, 0x72, 0xdd} // transferFrom(address,address,uint256)
	selBalanceOf    = []byte{0x70, 0xa0, 0x82, 0x31} // balanceOf(address)
)

// EvmLedger 基于 EVM 节点的账本实现。
// 资产 = ERC-20 合约地址；结算币种也是一个配置好的 ERC-20 (nativeToken)。
// 托管账户由 custodyKey 对应的地址扮演，所有出金交易由它签名。
// 同时实现 AssetLedger 和 NativeLedger。
type EvmLedger struct {
	client      *ethclient.Client
	chainID     *big.Int
	custodyKey  *ecdsa.PrivateKey
	custodyAddr common.Address
	nativeToken common.Address
}

func NewEvmLedger(rpcURL, custodyKeyHex, nativeToken string) (*EvmLedger, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("无法连接 EVM 节点 (%s): %w", rpcURL, err)
	}

	chainID, err := client.ChainID(context.Background())
	if err != nil {
		return nil, fmt.Errorf("查询 ChainID 失败: %w", err)
	}

	key, err := crypto.HexToECDSA(custodyKeyHex)
	if err != nil {
		return nil, fmt.Errorf("托管私钥无效: %w", err)
	}

	l := &EvmLedger{
		client:      client,
		chainID:     chainID,
		custodyKey:  key,
		custodyAddr: crypto.PubkeyToAddress(key.PublicKey),
		nativeToken: common.HexToAddress(nativeToken),
	}
	logger.Info("已连接 EVM 节点",
		zap.String("chain_id", chainID.String()),
		zap.String("custody", l.custodyAddr.Hex()))
	return l, nil
}

// CustodyAddress 托管账户地址 (卖家/买家需事先 approve 给它)
func (l *EvmLedger) CustodyAddress() string {
	return l.custodyAddr.Hex()
}

func (l *EvmLedger) TransferFrom(ctx context.Context, asset string, owner string, amount decimal.Decimal) error {
	// transferFrom(owner, custody, amount)
	data := packCall(selTransferFrom,
		common.HexToAddress(owner).Bytes(),
		l.custodyAddr.Bytes(),
		toWei(amount).Bytes(),
	)
	return l.sendCall(ctx, common.HexToAddress(asset), data)
}

func (l *EvmLedger) Transfer(ctx context.Context, asset string, to string, amount decimal.Decimal) error {
	// transfer(to, amount)
	data := packCall(selTransfer,
		common.HexToAddress(to).Bytes(),
		toWei(amount).Bytes(),
	)
	return l.sendCall(ctx, common.HexToAddress(asset), data)
}

func (l *EvmLedger) BalanceOf(ctx context.Context, asset string, account string) (decimal.Decimal, error) {
	token := common.HexToAddress(asset)
	data := packCall(selBalanceOf, common.HexToAddress(account).Bytes())

	out, err := l.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balanceOf 调用失败: %w", err)
	}
	return decimal.NewFromBigInt(new(big.Int).SetBytes(out), -18), nil
}

func (l *EvmLedger) Collect(ctx context.Context, from string, amount decimal.Decimal) error {
	return l.TransferFrom(ctx, l.nativeToken.Hex(), from, amount)
}

func (l *EvmLedger) Pay(ctx context.Context, to string, amount decimal.Decimal) error {
	return l.Transfer(ctx, l.nativeToken.Hex(), to, amount)
}

// sendCall 构造、签名并广播一笔合约调用，阻塞等待回执。
// 账本划转对上层是同步语义: 要么确认成功，要么返回错误。
func (l *EvmLedger) sendCall(ctx context.Context, to common.Address, data []byte) error {
	nonce, err := l.client.PendingNonceAt(ctx, l.custodyAddr)
	if err != nil {
		return fmt.Errorf("查询 nonce 失败: %w", err)
	}

	gasPrice, err := l.client.SuggestGasPrice(ctx)
	if err != nil {
		gasPrice = big.NewInt(20000000000) // 20 Gwei default
	}

	gasLimit := uint64(100000) // ERC-20 转账上限足够

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)

	// EIP-155 签名
	signer := types.NewEIP155Signer(l.chainID)
	signedTx, err := types.SignTx(tx, signer, l.custodyKey)
	if err != nil {
		return fmt.Errorf("签名失败: %w", err)
	}

	if err := l.client.SendTransaction(ctx, signedTx); err != nil {
		return fmt.Errorf("广播失败: %w", err)
	}

	return l.waitMined(ctx, signedTx.Hash())
}

// waitMined 轮询回执直到上链或超时
func (l *EvmLedger) waitMined(ctx context.Context, hash common.Hash) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	deadline := time.Now().Add(60 * time.Second)
	for {
		receipt, err := l.client.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("交易回滚: %s", hash.Hex())
			}
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("等待回执超时: %s", hash.Hex())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// packCall ABI 编码: 4 字节选择器 + 每个参数左填充到 32 字节
func packCall(selector []byte, args ...[]byte) []byte {
	data := make([]byte, 0, 4+32*len(args))
	data = append(data, selector...)
	for _, arg := range args {
		data = append(data, common.LeftPadBytes(arg, 32)...)
	}
	return data
}

// toWei 18 位定点金额转 wei 整数
func toWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(18).BigInt()
}

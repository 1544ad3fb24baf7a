package core

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const SignatureLength = 65

type SignedOperation string

const (
	SignedTransfer SignedOperation = "transfer"
	SignedReserve  SignedOperation = "reserve"
	SignedMint     SignedOperation = "mint"
	SignedBurn     SignedOperation = "burn"
)

// Namespace returns the nonce namespace consumed by the operation.
func (o SignedOperation) Namespace() NonceNamespace {
	switch o {
	case SignedMint:
		return NonceNamespaceMint
	case SignedBurn:
		return NonceNamespaceBurn
	default:
		return NonceNamespaceTransfer
	}
}

func (o SignedOperation) hasRecipient() bool {
	return o == SignedTransfer || o == SignedReserve
}

// SignedMessage holds the operands bound into an owner signature.
//
// Wire format v1, tightly packed:
//
//	transfer, reserve: ledger(20) sender(20) recipient(20) amount(32) fee(32) nonce(32)
//	mint, burn:        ledger(20) sender(20) amount(32) fee(32) nonce(32)
//
// The signed digest is the personal-sign hash of keccak256(packed).
type SignedMessage struct {
	Operation SignedOperation
	Ledger    Address
	Sender    Address
	Recipient Address
	Amount    uint256.Int
	Fee       uint256.Int
	Nonce     uint256.Int
}

func (m SignedMessage) Packed() []byte {
	size := common.AddressLength*2 + 32*3
	if m.Operation.hasRecipient() {
		size += common.AddressLength
	}
	out := make([]byte, 0, size)
	out = append(out, m.Ledger.Bytes()...)
	out = append(out, m.Sender.Bytes()...)
	if m.Operation.hasRecipient() {
		out = append(out, m.Recipient.Bytes()...)
	}
	amount := m.Amount.Bytes32()
	fee := m.Fee.Bytes32()
	nonce := m.Nonce.Bytes32()
	out = append(out, amount[:]...)
	out = append(out, fee[:]...)
	out = append(out, nonce[:]...)
	return out
}

// Hash is keccak256 of the packed operands.
func (m SignedMessage) Hash() common.Hash {
	return crypto.Keccak256Hash(m.Packed())
}

// Digest is the value actually signed.
func (m SignedMessage) Digest() common.Hash {
	hash := m.Hash()
	return common.BytesToHash(accounts.TextHash(hash.Bytes()))
}

// RecoverSigner returns the address that produced signature over digest.
func RecoverSigner(digest common.Hash, signature []byte) (Address, error) {
	if len(signature) != SignatureLength {
		return ZeroAddress, invalidSignatureError("core: signature must be 65 bytes", map[string]any{
			"length": len(signature),
		})
	}
	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return ZeroAddress, invalidSignatureError("core: signature recovery id is invalid", nil)
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[64], r, s, true) {
		return ZeroAddress, invalidSignatureError("core: signature values are invalid", nil)
	}
	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return ZeroAddress, invalidSignatureError(fmt.Sprintf("core: signature recovery failed: %v", err), nil)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySigner checks that signature over msg was produced by expected.
func VerifySigner(msg SignedMessage, signature []byte, expected Address) error {
	signer, err := RecoverSigner(msg.Digest(), signature)
	if err != nil {
		return err
	}
	if signer != expected {
		return invalidSignatureError("core: signer does not match owner", map[string]any{
			"operation": string(msg.Operation),
			"expected":  expected.Hex(),
			"recovered": signer.Hex(),
		})
	}
	return nil
}

// SignMessage produces an r||s||v signature with v in {27, 28}.
func SignMessage(msg SignedMessage, key *ecdsa.PrivateKey) ([]byte, error) {
	if key == nil {
		return nil, badInputError("core: signing key is required", nil)
	}
	sig, err := crypto.Sign(msg.Digest().Bytes(), key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

package redis

import (
	"fmt"

	"github.com/mcoot/faceit-ledger/internal/model"
)

// Key generation functions for each entity type. Ledger data never expires.

// deploymentKey returns the Redis key for the Deployment record
func (s *Storage) deploymentKey() string {
	return fmt.Sprintf("%s:deployment", s.cfg.KeyPrefix)
}

// accountKey returns the Redis key for a PlayerAccount
func (s *Storage) accountKey(addr model.Address) string {
	return fmt.Sprintf("%s:account:%s", s.cfg.KeyPrefix, addr)
}

// accountIndexKey returns the Redis key for the ZSET of account addresses,
// scored by creation time
func (s *Storage) accountIndexKey() string {
	return fmt.Sprintf("%s:idx:accounts", s.cfg.KeyPrefix)
}

// contractBalanceKey returns the Redis key for the contract balance
func (s *Storage) contractBalanceKey() string {
	return fmt.Sprintf("%s:contract:balance", s.cfg.KeyPrefix)
}

// walletKey returns the Redis key for an external wallet balance
func (s *Storage) walletKey(addr model.Address) string {
	return fmt.Sprintf("%s:wallet:%s", s.cfg.KeyPrefix, addr)
}

// eventsKey returns the Redis key for the event LIST
func (s *Storage) eventsKey() string {
	return fmt.Sprintf("%s:events", s.cfg.KeyPrefix)
}

// receiptKey returns the Redis key for a Receipt
func (s *Storage) receiptKey(id model.TxID) string {
	return fmt.Sprintf("%s:receipt:%s", s.cfg.KeyPrefix, id)
}

// credentialKey returns the Redis key for a Credential
func (s *Storage) credentialKey(addr model.Address) string {
	return fmt.Sprintf("%s:credential:%s", s.cfg.KeyPrefix, addr)
}

package localnet

import (
	"github.com/code-payments/code-nft-issuer/pkg/solana"
)

// journalEntry is a modification of ledger state that can be reverted.
type journalEntry interface {
	// revert undoes the change introduced by this entry.
	revert(*Ledger)

	// dirtied returns the account key modified by this entry.
	dirtied() string
}

// journal holds every account modification made by the transaction being
// executed. Reverting it restores the ledger to its state before the
// transaction.
type journal struct {
	entries []journalEntry
	dirties map[string]int
}

func newJournal() *journal {
	return &journal{
		dirties: make(map[string]int),
	}
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
	j.dirties[entry.dirtied()]++
}

// revert undoes entries down to snapshot, newest first.
func (j *journal) revert(l *Ledger, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(l)

		addr := j.entries[i].dirtied()
		if j.dirties[addr]--; j.dirties[addr] == 0 {
			delete(j.dirties, addr)
		}
	}
	j.entries = j.entries[:snapshot]
}

func (j *journal) length() int {
	return len(j.entries)
}

type (
	createAccountChange struct {
		account string
	}
	accountChange struct {
		account string
		prev    solana.AccountInfo
	}
)

func (ch createAccountChange) revert(l *Ledger) {
	delete(l.accounts, ch.account)
}

func (ch createAccountChange) dirtied() string {
	return ch.account
}

func (ch accountChange) revert(l *Ledger) {
	l.accounts[ch.account] = ch.prev
}

func (ch accountChange) dirtied() string {
	return ch.account
}

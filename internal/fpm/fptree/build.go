package fptree

import (
	"fpm.lopezb.com/internal/fpm/txdb"
)

// Build runs the second pass over the transactions: each one is reduced to its
// frequent items, put in canonical order and inserted from the root.
func Build(txs []txdb.Transaction, order *txdb.Order) (*Tree, error) {
	t := New(order.Len(), order.Item)

	var buf []int32
	for _, tx := range txs {
		buf = order.Encode(tx, buf)
		if len(buf) == 0 {
			continue
		}
		if err := t.Insert(buf, 1); err != nil {
			return nil, err
		}
	}
	return t, nil
}

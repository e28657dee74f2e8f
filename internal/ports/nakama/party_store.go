package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"

	"bigtwo/internal/domain"
	"bigtwo/internal/ports"
)

const (
	partyCollection = "parties"
)

// PartyStoreAdapter persists table snapshots in Nakama storage under
// the system user, so a party survives match handler restarts.
type PartyStoreAdapter struct {
	nk runtime.NakamaModule
}

var _ ports.PartyStore = (*PartyStoreAdapter)(nil)

func NewPartyStoreAdapter(nk runtime.NakamaModule) *PartyStoreAdapter {
	return &PartyStoreAdapter{nk: nk}
}

func (a *PartyStoreAdapter) Load(ctx context.Context, partyID string) (*domain.TableState, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: partyCollection, Key: partyID},
	})
	if err != nil {
		return nil, fmt.Errorf("read party %s: %w", partyID, err)
	}
	if len(objects) == 0 {
		return nil, ports.ErrPartyNotFound
	}
	var t domain.TableState
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &t); err != nil {
		return nil, fmt.Errorf("decode party %s: %w", partyID, err)
	}
	return &t, nil
}

func (a *PartyStoreAdapter) Save(ctx context.Context, t *domain.TableState) error {
	value, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode party %s: %w", t.PartyID, err)
	}
	_, err = a.nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      partyCollection,
			Key:             t.PartyID,
			Value:           string(value),
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	if err != nil {
		return fmt.Errorf("write party %s: %w", t.PartyID, err)
	}
	return nil
}

func (a *PartyStoreAdapter) Delete(ctx context.Context, partyID string) error {
	err := a.nk.StorageDelete(ctx, []*runtime.StorageDelete{
		{Collection: partyCollection, Key: partyID},
	})
	if err != nil {
		return fmt.Errorf("delete party %s: %w", partyID, err)
	}
	return nil
}

package snapshot

import (
	"time"

	"github.com/dailyyoga/seatsync/seat"
	"github.com/fxamacker/cbor/v2"
	"github.com/shopspring/decimal"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("snapshot: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("snapshot: CBOR decoder initialization failed: " + err.Error())
	}
}

// entry is the stored form of one event's seats. Integer keys keep the
// payload small; price is kept as its decimal string so no precision is lost.
type entry struct {
	Version   int        `cbor:"1,keyasint"`
	UpdatedAt int64      `cbor:"2,keyasint"`
	Seats     []wireSeat `cbor:"3,keyasint"`
}

type wireSeat struct {
	EventSeatID string `cbor:"1,keyasint,omitempty"`
	SeatID      string `cbor:"2,keyasint,omitempty"`
	Label       string `cbor:"3,keyasint,omitempty"`
	Row         string `cbor:"4,keyasint,omitempty"`
	Number      int    `cbor:"5,keyasint,omitempty"`
	Type        string `cbor:"6,keyasint,omitempty"`
	Status      string `cbor:"7,keyasint"`
	TierCode    string `cbor:"8,keyasint,omitempty"`
	Price       string `cbor:"9,keyasint"`
}

const entryVersion = 1

func encode(seats []seat.Record, updatedAt time.Time) ([]byte, error) {
	e := entry{
		Version:   entryVersion,
		UpdatedAt: updatedAt.UnixMilli(),
		Seats:     make([]wireSeat, len(seats)),
	}
	for i, s := range seats {
		e.Seats[i] = wireSeat{
			EventSeatID: s.EventSeatID,
			SeatID:      s.SeatID,
			Label:       s.Label,
			Row:         s.Row,
			Number:      s.Number,
			Type:        s.Type,
			Status:      string(s.Status),
			TierCode:    s.TierCode,
			Price:       s.Price.String(),
		}
	}
	return encMode.Marshal(e)
}

func decode(data []byte) ([]seat.Record, time.Time, error) {
	var e entry
	if err := decMode.Unmarshal(data, &e); err != nil {
		return nil, time.Time{}, err
	}
	seats := make([]seat.Record, len(e.Seats))
	for i, w := range e.Seats {
		status := seat.Status(w.Status)
		if !status.Valid() {
			return nil, time.Time{}, seat.ErrUnknownStatus(w.Status)
		}
		price, err := decimal.NewFromString(w.Price)
		if err != nil {
			return nil, time.Time{}, err
		}
		seats[i] = seat.Record{
			EventSeatID: w.EventSeatID,
			SeatID:      w.SeatID,
			Label:       w.Label,
			Row:         w.Row,
			Number:      w.Number,
			Type:        w.Type,
			Status:      status,
			TierCode:    w.TierCode,
			Price:       price,
		}
	}
	return seats, time.UnixMilli(e.UpdatedAt), nil
}

package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	line2 := "Blok C2 No. 7"
	addr := Address{
		Recipient:     "Dewi Lestari",
		Phone:         "+6281234567890",
		Line1:         "Jl. Merdeka No. 12",
		Line2:         &line2,
		District:      "Coblong",
		City:          "Bandung",
		Province:      "Jawa Barat",
		PostalCode:    "40132",
		DestinationID: 23,
	}

	value, err := addr.Value()
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, addr, decoded)
}

func TestAddressValueValidation(t *testing.T) {
	addr := Address{
		Recipient:  "Dewi Lestari",
		Phone:      "+6281234567890",
		Line1:      "Jl. Merdeka No. 12",
		City:       "Bandung",
		Province:   "Jawa Barat",
		PostalCode: "40132",
	}

	_, err := addr.Value()
	assert.ErrorContains(t, err, "destination_id")
}

func TestAddressScanNull(t *testing.T) {
	var addr Address
	require.NoError(t, addr.Scan(nil))
	assert.Equal(t, Address{}, addr)
}

func TestShippingLineScan(t *testing.T) {
	var line ShippingLine
	require.NoError(t, line.Scan([]byte(`{"courier":"jne","service":"REG","etd":"2-3","cost":18000}`)))
	assert.Equal(t, ShippingLine{Courier: "jne", Service: "REG", Etd: "2-3", Cost: 18000}, line)
}

func TestJSONMapRoundTrip(t *testing.T) {
	payload := JSONMap{"order_id": "abc", "total": float64(120000)}

	value, err := payload.Value()
	require.NoError(t, err)

	var decoded JSONMap
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, payload, decoded)
}

func TestNullableUUIDUnmarshal(t *testing.T) {
	id := uuid.New()

	var present NullableUUID
	require.NoError(t, json.Unmarshal([]byte(`"`+id.String()+`"`), &present))
	assert.True(t, present.Valid)
	require.NotNil(t, present.Value)
	assert.Equal(t, id, *present.Value)

	var explicitNull NullableUUID
	require.NoError(t, json.Unmarshal([]byte(`null`), &explicitNull))
	assert.True(t, explicitNull.Valid)
	assert.Nil(t, explicitNull.Value)
}

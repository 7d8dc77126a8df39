package callbacktypes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellRoundTrip(t *testing.T) {
	data := CellData("XL-01", 12)
	assert.Equal(t, "cell:XL-01:12", data)

	id, index, err := ParseCell(data)
	require.NoError(t, err)
	assert.Equal(t, "XL-01", id)
	assert.Equal(t, 12, index)
}

func TestParseCell_Invalid(t *testing.T) {
	for _, data := range []string{"cell:", "cell:SN135", "cell::3", "cell:SN135:x", "cell:SN135:-1", "res_cancel:1"} {
		_, _, err := ParseCell(data)
		assert.Error(t, err, data)
	}
}

func TestParseReservation(t *testing.T) {
	id, err := ParseReservation(ResCheckIn, ReservationData(ResCheckIn, 77))
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)

	_, err = ParseReservation(ResCheckIn, "res_checkin:abc")
	assert.Error(t, err)
	_, err = ParseReservation(ResCheckIn, ReservationData(ResCancel, 1))
	assert.Error(t, err)
}

func TestParseDay(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	parsed, err := ParseDay(DayData(day), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day, parsed)

	_, err = ParseDay("grid_day:tomorrow", time.UTC)
	assert.Error(t, err)
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage(PageData(2))
	require.NoError(t, err)
	assert.Equal(t, 2, page)

	_, err = ParsePage("grid_page:-1")
	assert.Error(t, err)
}

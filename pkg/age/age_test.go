package age

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := Parse(value)
	require.NoError(t, err)
	return d
}

func TestCalculateCalendarBoundary(t *testing.T) {
	born := date(t, "2015-06-15")

	require.Equal(t, Age{Years: 8, Months: 11}, Calculate(born, date(t, "2024-06-14")))
	require.Equal(t, Age{Years: 9, Months: 0}, Calculate(born, date(t, "2024-06-15")))
}

func TestCalculateEndOfMonth(t *testing.T) {
	cases := []struct {
		born, ref string
		want      Age
	}{
		{"2018-01-31", "2018-02-27", Age{}},
		{"2018-01-31", "2018-02-28", Age{Months: 1}},
		{"2020-01-31", "2020-02-28", Age{}},
		{"2020-01-31", "2020-02-29", Age{Months: 1}},
		{"2018-01-30", "2018-04-29", Age{Months: 2}},
		{"2018-01-31", "2018-04-30", Age{Months: 3}},
		{"2016-02-29", "2017-02-28", Age{Years: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.born+"_"+tc.ref, func(t *testing.T) {
			require.Equal(t, tc.want, Calculate(date(t, tc.born), date(t, tc.ref)))
		})
	}
}

func TestCalculateIgnoresTimeOfDay(t *testing.T) {
	born := date(t, "2018-01-31")
	ref := time.Date(2018, 3, 1, 23, 59, 0, 0, time.UTC)

	require.Equal(t, Age{Years: 0, Months: 1}, Calculate(born, ref))
}

func TestCalculateBeforeBirthIsZero(t *testing.T) {
	require.Equal(t, Age{}, Calculate(date(t, "2020-05-01"), date(t, "2019-05-01")))
}

func TestFormat(t *testing.T) {
	got, err := Format("2017-04-10", date(t, "2024-06-20"))
	require.NoError(t, err)
	require.Equal(t, "7歳2ヶ月", got)

	_, err = Format("10/04/2017", time.Time{})
	require.Error(t, err)
}

func TestEnglish(t *testing.T) {
	require.Equal(t, "1 year 0 months", Age{Years: 1}.English())
	require.Equal(t, "6 years 1 month", Age{Years: 6, Months: 1}.English())
}

package roster

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testRoster = `# lab roster
# name,handle,phone,birthday,orcid
Tom Wagg,tomwagg,555-0100,5/8,0000-0001-6147-5761
Alice Smith,alice,555-0101,-,
Bob Jones,bob,555-0102,5/8,
Carol White,carol,555-0103,29/2,0000-0002-0000-0000
# Dave left
Erin Black,erin,555-0104,1/1,
`

func newRoster(t *testing.T, content string) *Roster {
	t.Helper()
	path := filepath.Join(t.TempDir(), "birthday_phone_list.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return New(path)
}

func names(members []Member) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Name
	}
	return out
}

func TestRoster_Members(t *testing.T) {
	r := newRoster(t, testRoster)
	members, err := r.Members()
	require.NoError(t, err)
	require.Len(t, members, 5)
	assert.Equal(t, Member{
		Name:     "Tom Wagg",
		Handle:   "tomwagg",
		Phone:    "555-0100",
		Birthday: Birthday{Day: 5, Month: time.August},
		ORCID:    "0000-0001-6147-5761",
	}, members[0])
	assert.False(t, members[1].Birthday.Known())
	assert.Equal(t, "Tom", members[0].FirstName())
}

func TestRoster_Members_Invalid(t *testing.T) {
	r := newRoster(t, "# name,handle,phone,birthday,orcid\nTom,tom,1,31/2,\n")
	_, err := r.Members()
	assert.Error(t, err)

	// every line must have all five columns
	r = newRoster(t, "Tom Wagg,tomwagg,555-0100,5/8\n")
	_, err = r.Members()
	assert.Error(t, err)

	_, err = New(filepath.Join(t.TempDir(), "missing.csv")).Members()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRoster_Members_NoHeader(t *testing.T) {
	r := newRoster(t, "# name,username,phone,birthday,orcid\nTom Wagg,tomwagg,555-0100,5/8,0000-0001-6147-5761\nBob Jones,bob,555-0102,6/8,\nCarol White,carol,555-0103,7/8,\n")
	members, err := r.Members()
	require.NoError(t, err)
	assert.Equal(t, []string{"Tom Wagg", "Bob Jones", "Carol White"}, names(members))
	assert.Equal(t, "tomwagg", members[0].Handle)
	assert.Equal(t, "0000-0001-6147-5761", members[0].ORCID)

	closest, days, ok, err := r.ClosestBirthday(time.Date(2022, time.August, 1, 9, 32, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Tom Wagg"}, names(closest))
	assert.Equal(t, 4, days)

	// a file with only comments holds no members
	members, err = newRoster(t, "# name,username,phone,birthday,orcid\n").Members()
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestRoster_ClosestBirthday(t *testing.T) {
	r := newRoster(t, testRoster)

	tests := []struct {
		name      string
		today     time.Time
		wantNames []string
		wantDays  int
	}{
		{
			name:      "shared birthday today",
			today:     time.Date(2022, time.August, 5, 9, 32, 0, 0, time.UTC),
			wantNames: []string{"Tom Wagg", "Bob Jones"},
			wantDays:  0,
		},
		{
			name:      "next week",
			today:     time.Date(2022, time.July, 29, 9, 32, 0, 0, time.UTC),
			wantNames: []string{"Tom Wagg", "Bob Jones"},
			wantDays:  7,
		},
		{
			name:      "wraps to next year",
			today:     time.Date(2022, time.December, 25, 9, 32, 0, 0, time.UTC),
			wantNames: []string{"Erin Black"},
			wantDays:  7,
		},
		{
			name:      "leap day in a common year",
			today:     time.Date(2023, time.February, 27, 9, 32, 0, 0, time.UTC),
			wantNames: []string{"Carol White"},
			wantDays:  1,
		},
		{
			name:      "leap day in a leap year",
			today:     time.Date(2024, time.February, 27, 9, 32, 0, 0, time.UTC),
			wantNames: []string{"Carol White"},
			wantDays:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members, days, ok, err := r.ClosestBirthday(tt.today)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.wantNames, names(members))
			assert.Equal(t, tt.wantDays, days)
		})
	}
}

func TestRoster_ClosestBirthday_NoneKnown(t *testing.T) {
	r := newRoster(t, "# name,handle,phone,birthday,orcid\nAlice,alice,1,-,\n")
	members, _, ok, err := r.ClosestBirthday(time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, members)
}

func TestRoster_Birthdays(t *testing.T) {
	r := newRoster(t, testRoster)
	known, unknown, err := r.Birthdays()
	require.NoError(t, err)
	assert.Equal(t, []string{"Tom Wagg", "Bob Jones", "Carol White", "Erin Black"}, names(known))
	assert.Equal(t, []string{"Alice Smith"}, names(unknown))
	assert.Equal(t, "August 5th", known[0].Birthday.String())
	assert.Equal(t, "February 29th", known[2].Birthday.String())
	assert.Equal(t, "January 1st", known[3].Birthday.String())
}

func TestRoster_Find(t *testing.T) {
	r := newRoster(t, testRoster)
	found, err := r.Find("what's ALICE's latest paper?")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice Smith"}, names(found))

	found, err = r.Find("nobody here")
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = r.Find("any papers from tom wagg or carol?")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tom Wagg", "Carol White"}, names(found))

	// names only match whole words
	found, err = r.Find("any papers tomorrow? the smithsonian has all of them")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestBirthday_CSV(t *testing.T) {
	var b Birthday
	require.NoError(t, b.UnmarshalCSV(" 22/11"))
	assert.Equal(t, Birthday{Day: 22, Month: time.November}, b)
	s, err := b.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "22/11", s)

	require.NoError(t, b.UnmarshalCSV("-"))
	assert.False(t, b.Known())
	s, err = b.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "-", s)

	assert.Error(t, b.UnmarshalCSV("13/13"))
	assert.Error(t, b.UnmarshalCSV("tomorrow"))
}

package survey

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset(t *testing.T) *Dataset {
	t.Helper()
	table, err := NewTable(
		[]string{ColTimestamp, ColSalary, ColGender, ColRemote, "note"},
		[][]string{
			{"2024-05-01 09:15:00", "100", "0", "1", "a"},
			{"2024-05-01 22:40:00", "150", "1", "0", "b"},
			{"bad", "80", "", "1", "c"},
			{"2024-05-02 13:00:00", "", "0", "0", "d"},
		},
	)
	require.NoError(t, err)
	return FromTable(table)
}

func TestFromTable_ColumnKinds(t *testing.T) {
	d := sampleDataset(t)

	assert.Equal(t, 4, d.Len())
	assert.True(t, d.IsNumeric(ColSalary))
	assert.True(t, d.IsNumeric(ColGender))
	assert.False(t, d.IsNumeric(ColTimestamp))
	assert.False(t, d.IsNumeric("note"))
	assert.Equal(t, []string{ColSalary, ColGender, ColRemote}, d.NumericColumns())
	assert.True(t, math.IsNaN(d.Float(ColGender)[2]))
	assert.Equal(t, []string{"100", "150", "80", ""}, d.Strings(ColSalary))
}

func TestDataset_MasksAndValues(t *testing.T) {
	d := sampleDataset(t)

	remote := d.Mask(ColRemote, 1)
	assert.Equal(t, []bool{true, false, true, false}, remote)
	assert.Equal(t, 2, Count(remote))
	assert.Equal(t, []float64{100, 80}, d.Salaries(remote))
	assert.Equal(t, []float64{150}, d.Salaries(Not(remote)), "NaN salary is skipped")
	assert.Equal(t, []float64{100, 150, 80}, d.Salaries(nil))

	male := d.Mask(ColGender, GenderMale)
	assert.Equal(t, []bool{true, false, false, false}, And(remote, male))
	assert.Equal(t, []bool{true, false, true, true}, Or(remote, male))
	assert.Equal(t, []bool{false, false, false, false}, d.Mask("absent", 1))
}

func TestDataset_Filter(t *testing.T) {
	d := sampleDataset(t)

	sub, err := d.Filter([]bool{false, true, true, false})
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, []float64{150, 80}, sub.Float(ColSalary))
	assert.Equal(t, []string{"b", "c"}, sub.Strings("note"))
	assert.Equal(t, d.Columns(), sub.Columns())

	_, err = d.Filter([]bool{true})
	assert.ErrorIs(t, err, ErrMaskLengthMismatch)
}

func TestDataset_Hours(t *testing.T) {
	d := sampleDataset(t)
	assert.Equal(t, []int{9, 22, -1, 13}, d.Hours())
}

func TestDataset_SetFloat(t *testing.T) {
	d := sampleDataset(t)

	require.NoError(t, d.SetFloat("cluster", []float64{0, 1, 1, 0}))
	assert.Contains(t, d.ColumnsWithPrefix("clu"), "cluster")
	assert.ErrorIs(t, d.SetFloat("cluster", []float64{1}), ErrLengthMismatch)
}

func TestHourBucket(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{-1, ""},
		{0, "Night (0-6)"},
		{6, "Night (0-6)"},
		{7, "Morning (7-12)"},
		{13, "Afternoon (13-18)"},
		{23, "Evening (19-23)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HourBucket(tt.hour), tt.hour)
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Europe", DisplayLabel(ColEurope, PrefixCompanyLocation))
	assert.Equal(t, "Overseas TR hub", DisplayLabel("company_location_Yurtdisi_TR_hub", PrefixCompanyLocation))
	assert.Equal(t, "Data Scientist", DisplayLabel("role_Data_Scientist", PrefixRole))
	assert.Equal(t, "Staff Engineer", CareerLevelLabel(4))
	assert.Equal(t, "Level 9", CareerLevelLabel(9))
	assert.Equal(t, "Female", GenderLabel(GenderFemale))
}

package db

import (
	"testing"

	"github.com/hkpodravka/klub/internal/config"
	"github.com/hkpodravka/klub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared&_foreign_keys=on"), &gorm.Config{})
	require.NoError(t, err)
	return d
}

var testClub = config.ClubConfig{Name: "Hrvački klub Podravka", OIB: "60911784858", IBAN: "HR6923860021100518154"}

func TestSeedIdempotent(t *testing.T) {
	d := openMemory(t)
	require.NoError(t, Migrate(d, false))
	require.NoError(t, Seed(d, testClub))
	require.NoError(t, Seed(d, testClub))

	var clubs int64
	d.Model(&models.ClubInfo{}).Count(&clubs)
	assert.Equal(t, int64(1), clubs)

	for _, name := range models.DefaultGroups {
		var c int64
		d.Model(&models.Group{}).Where("name = ?", name).Count(&c)
		assert.Equal(t, int64(1), c, "group %s", name)
	}
}

func TestSeedKeepsEditedClub(t *testing.T) {
	d := openMemory(t)
	require.NoError(t, Migrate(d, false))
	require.NoError(t, Seed(d, testClub))
	require.NoError(t, d.Model(&models.ClubInfo{ID: models.ClubInfoID}).Update("president", "Ivan Horvat").Error)

	require.NoError(t, Seed(d, config.ClubConfig{Name: "Other"}))

	var club models.ClubInfo
	require.NoError(t, d.First(&club, models.ClubInfoID).Error)
	assert.Equal(t, "Hrvački klub Podravka", club.Name)
	assert.Equal(t, "Ivan Horvat", club.President)
}

func TestMigrateTwiceIsNoop(t *testing.T) {
	d := openMemory(t)
	require.NoError(t, Migrate(d, false))
	require.NoError(t, Migrate(d, false))
}

func TestSQLMigrationsMatchModels(t *testing.T) {
	d := openMemory(t)
	require.NoError(t, Migrate(d, true))
	require.NoError(t, Migrate(d, true))
	require.NoError(t, Seed(d, testClub))

	oib := "12345678901"
	m := models.Member{FirstName: "Ana", LastName: "Anić", OIB: &oib, FeeAmount: 30, Veteran: true}
	require.NoError(t, d.Create(&m).Error)
	c := models.Competition{Kind: models.KindRegional, Name: "Kup", DateFrom: "2024-05-01", Coaches: []string{"Trener"}}
	require.NoError(t, d.Create(&c).Error)
	r := models.Result{CompetitionID: c.ID, MemberID: &m.ID, Placement: 1, WinsOver: []models.Opponent{{Name: "X", Club: "Y"}}}
	require.NoError(t, d.Create(&r).Error)

	var got models.Result
	require.NoError(t, d.First(&got, r.ID).Error)
	require.Len(t, got.WinsOver, 1)
	assert.Equal(t, "Y", got.WinsOver[0].Club)
}

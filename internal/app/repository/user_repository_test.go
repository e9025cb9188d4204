package repository

import (
	"testing"

	"github.com/dungji/dungji-market-backend/internal/app/model"
	"github.com/dungji/dungji-market-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createTestUser(t *testing.T, testDB *gorm.DB, email, nickname string, role model.UserRole) *model.User {
	user := &model.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		Name:         "테스트",
		Nickname:     nickname,
		Phone:        "01012345678",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func TestUserRepository_Create(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	tests := []struct {
		name    string
		user    *model.User
		wantErr bool
	}{
		{
			name: "Valid user",
			user: &model.User{
				Email:        "test@dungji.com",
				PasswordHash: "hashedpassword",
				Name:         "Test User",
				Nickname:     "tester",
				Phone:        "01012345678",
				Role:         model.RoleBuyer,
			},
			wantErr: false,
		},
		{
			name: "Duplicate email",
			user: &model.User{
				Email:        "test@dungji.com",
				PasswordHash: "hashedpassword",
				Name:         "Another User",
				Nickname:     "another",
				Phone:        "01087654321",
				Role:         model.RoleBuyer,
			},
			wantErr: true,
		},
		{
			name: "Duplicate nickname",
			user: &model.User{
				Email:        "other@dungji.com",
				PasswordHash: "hashedpassword",
				Name:         "Other User",
				Nickname:     "tester",
				Role:         model.RoleSeller,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(tt.user)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.NotZero(t, tt.user.ID)
			}
		})
	}
}

func TestUserRepository_FindByID(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)
	user := createTestUser(t, testDB, "test@dungji.com", "tester", model.RoleBuyer)

	tests := []struct {
		name    string
		id      uint
		wantErr bool
	}{
		{name: "Existing user", id: user.ID, wantErr: false},
		{name: "Non-existing user", id: 9999, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.FindByID(tt.id)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, found)
			} else {
				require.NoError(t, err)
				require.NotNil(t, found)
				assert.Equal(t, user.Email, found.Email)
				assert.Equal(t, user.Nickname, found.Nickname)
			}
		})
	}
}

func TestUserRepository_FindByEmailAndNickname(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)
	user := createTestUser(t, testDB, "test@dungji.com", "tester", model.RoleBuyer)

	found, err := repo.FindByEmail("test@dungji.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByEmail("notfound@dungji.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err = repo.FindByNickname("tester")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	exists, err := repo.ExistsByEmail("test@dungji.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByNickname("nobody")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_FindBySNS(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)

	user := &model.User{
		Email:    "kakao_1234@kakao.dungji",
		Name:     "카카오",
		Nickname: "kakao1234",
		Role:     model.RoleBuyer,
		SNSType:  model.SNSTypeKakao,
		SNSID:    "1234",
	}
	require.NoError(t, repo.Create(user))

	found, err := repo.FindBySNS(model.SNSTypeKakao, "1234")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindBySNS(model.SNSTypeKakao, "9999")
	assert.Error(t, err)
}

func TestUserRepository_IsPhoneVerifiedByOther(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)

	owner := createTestUser(t, testDB, "owner@dungji.com", "owner", model.RoleBuyer)
	other := createTestUser(t, testDB, "other@dungji.com", "other", model.RoleBuyer)
	require.NoError(t, repo.UpdateFields(owner.ID, map[string]interface{}{"phone_verified": true}))

	taken, err := repo.IsPhoneVerifiedByOther("01012345678", other.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.IsPhoneVerifiedByOther("01012345678", owner.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserRepository_Update(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)
	user := createTestUser(t, testDB, "test@dungji.com", "tester", model.RoleBuyer)

	user.Name = "Updated Name"
	user.Region = "서울 강남구"
	require.NoError(t, repo.Update(user))

	updated, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated Name", updated.Name)
	assert.Equal(t, "서울 강남구", updated.Region)
}

func TestUserRepository_ListAndSellerIDs(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)

	createTestUser(t, testDB, "buyer@dungji.com", "buyer", model.RoleBuyer)
	s1 := createTestUser(t, testDB, "seller1@dungji.com", "seller1", model.RoleSeller)
	s2 := createTestUser(t, testDB, "seller2@dungji.com", "seller2", model.RoleSeller)

	users, total, err := repo.List(UserFilter{Role: model.RoleSeller})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 2)

	users, total, err = repo.List(UserFilter{Query: "seller1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, s1.ID, users[0].ID)

	ids, err := repo.FindSellerIDs(0)
	require.NoError(t, err)
	assert.Equal(t, []uint{s1.ID, s2.ID}, ids)

	ids, err = repo.FindSellerIDs(1)
	require.NoError(t, err)
	assert.Equal(t, []uint{s1.ID}, ids)
}

func TestUserRepository_Delete(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewUserRepository(testDB)
	user := createTestUser(t, testDB, "test@dungji.com", "tester", model.RoleBuyer)

	require.NoError(t, repo.Delete(user.ID))

	// soft delete
	_, err := repo.FindByID(user.ID)
	assert.Error(t, err)
}

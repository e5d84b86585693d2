package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/menudrop/orderdesk/config"
	"github.com/menudrop/orderdesk/database"
	"github.com/menudrop/orderdesk/database/dbhelper"
	"github.com/menudrop/orderdesk/middlewares"
	"github.com/menudrop/orderdesk/models"
	"github.com/menudrop/orderdesk/utils"
)

func Register(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "all fields are required")
		return
	}
	if len(req.Password) < 6 {
		utils.RespondError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	exists, err := dbhelper.IsUserExists(req.Email)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to check user existence")
		return
	}
	if exists {
		utils.RespondError(w, http.StatusBadRequest, "user already exists")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	var userID uuid.UUID
	var accToken, refToken string
	txErr := database.Tx(func(tx *sql.Tx) error {
		userID, err = dbhelper.CreateUser(tx, req.Name, req.Email, hashedPassword, uuid.Nil)
		if err != nil {
			logrus.WithError(err).Error("failed to create user")
			return err
		}

		// Self-registration creates the restaurant owner account.
		if err = dbhelper.AssignRole(tx, userID, models.RoleOwner); err != nil {
			logrus.WithError(err).Error("failed to assign role to the user")
			return err
		}

		accToken, refToken, err = utils.GenerateTokens(userID, []string{string(models.RoleOwner)})
		if err != nil {
			logrus.WithError(err).Error("failed to generate token")
			return err
		}
		return nil
	})
	if txErr != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	setRefreshCookie(w, refToken, time.Now().Add(7*24*time.Hour))
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"user_id":      userID,
		"email":        req.Email,
		"name":         req.Name,
		"access_token": accToken,
	})
}

func Login(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "email and password required")
		return
	}

	userID, name, err := dbhelper.GetUserByPassword(req.Email, req.Password)
	if err == sql.ErrNoRows {
		utils.RespondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	} else if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	roles, err := dbhelper.GetUserRoles(userID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not fetch roles")
		return
	}
	if len(roles) == 0 {
		utils.RespondError(w, http.StatusForbidden, "no roles assigned")
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(userID, roles)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	setRefreshCookie(w, refreshToken, time.Now().Add(7*24*time.Hour))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      userID,
		"name":         name,
		"email":        req.Email,
		"access_token": accessToken,
		"roles":        roles,
	})
}

func RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "refresh token missing")
		return
	}

	claims := &middlewares.Claims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(config.SecretKey), nil
	})
	if err != nil || !token.Valid {
		utils.RespondError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	userID := claims.UserID
	if userID == uuid.Nil && claims.Subject != "" {
		userID, err = uuid.Parse(claims.Subject)
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, "invalid refresh token subject")
			return
		}
	}

	roles := claims.Roles
	if len(roles) == 0 {
		roles, err = dbhelper.GetUserRoles(userID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "could not fetch roles")
			return
		}
	}

	newAccessToken, newRefreshToken, err := utils.GenerateTokens(userID, roles)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	setRefreshCookie(w, newRefreshToken, time.Now().Add(7*24*time.Hour))
	utils.RespondJSON(w, http.StatusOK, map[string]string{"access_token": newAccessToken})
}

func Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "successfully logged out"})
}

// CreateTeamMember lets an owner add a staff account for the dashboard.
func CreateTeamMember(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	type request struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "all fields are required")
		return
	}

	exists, err := dbhelper.IsUserExists(req.Email)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to check user existence")
		return
	}
	if exists {
		utils.RespondError(w, http.StatusConflict, "user already exists")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	var userID uuid.UUID
	txErr := database.Tx(func(tx *sql.Tx) error {
		userID, err = dbhelper.CreateUser(tx, req.Name, req.Email, hashedPassword, claims.UserID)
		if err != nil {
			return err
		}
		return dbhelper.AssignRole(tx, userID, models.RoleStaff)
	})
	if txErr != nil {
		logrus.WithError(txErr).Error("failed to create team member")
		utils.RespondError(w, http.StatusInternalServerError, "failed to create team member")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"message": "team member created",
		"user_id": userID.String(),
	})
}

func ListTeamMembers(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	members, err := dbhelper.ListTeamMembers(claims.UserID)
	if err != nil {
		logrus.WithError(err).Error("failed to list team members")
		utils.RespondError(w, http.StatusInternalServerError, "failed to list team members")
		return
	}
	if members == nil {
		members = []models.User{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

func RemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	claims, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	memberID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	err = dbhelper.ArchiveTeamMember(claims.UserID, memberID)
	if err == sql.ErrNoRows {
		utils.RespondError(w, http.StatusNotFound, "team member not found")
		return
	} else if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to remove team member")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "team member removed"})
}

func setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    token,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		Expires:  expires,
	})
}

package fakebackend

import (
	"io"
	"net/http"
	"path"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if !decode(r, &in) || in.Identifier == "" || in.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Identifier and password are required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id, a := b.findLocked(in.Identifier)
	if a == nil || a.password != in.Password {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if verified, _ := a.doc["isVerified"].(bool); !verified {
		writeMessage(w, http.StatusForbidden, "Please verify your account first")
		return
	}
	b.writeSessionLocked(w, id, a, "")
}

func (b *Backend) writeSessionLocked(w http.ResponseWriter, id string, a *account, message string) {
	access, refresh, err := b.mintLocked(id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{"accessToken": access, "refreshToken": refresh, "user": cloneDoc(a.doc)}
	if message != "" {
		resp["message"] = message
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username    string         `json:"username"`
		FirstName   string         `json:"firstname"`
		LastName    string         `json:"lastname"`
		Email       string         `json:"email"`
		Password    string         `json:"password"`
		PhoneNumber string         `json:"phoneNumber"`
		Location    map[string]any `json:"location"`
	}
	if !decode(r, &in) || in.Username == "" || in.Email == "" || in.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if id, _ := b.findLocked(in.Email); id != "" {
		writeMessage(w, http.StatusConflict, "User already exists")
		return
	}
	if id, _ := b.findLocked(in.Username); id != "" {
		writeMessage(w, http.StatusConflict, "Username is taken")
		return
	}

	id := uuid.NewString()
	profile := map[string]any{}
	if in.Location != nil {
		profile["location"] = in.Location
	}
	b.accounts[id] = &account{
		password: in.Password,
		doc: map[string]any{
			"id":          id,
			"username":    in.Username,
			"firstname":   in.FirstName,
			"lastname":    in.LastName,
			"email":       in.Email,
			"phoneNumber": in.PhoneNumber,
			"isAdmin":     false,
			"isVerified":  false,
			"createdAt":   time.Now().UTC().Format(time.RFC3339),
			"profile":     profile,
		},
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "OTP sent to your email", "userId": id})
}

func (b *Backend) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Identifier string `json:"identifier"`
		OTP        string `json:"otp"`
	}
	if !decode(r, &in) {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id, a := b.findLocked(in.Identifier)
	if a == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if in.OTP != DefaultOTP {
		writeMessage(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	a.doc["isVerified"] = true
	b.writeSessionLocked(w, id, a, "Account verified")
}

func (b *Backend) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Identifier string `json:"identifier"`
	}
	if !decode(r, &in) {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, a := b.findLocked(in.Identifier); a == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeMessage(w, http.StatusOK, "OTP sent")
}

func (b *Backend) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Identifier  string `json:"identifier"`
		NewPassword string `json:"newPassword"`
	}
	if !decode(r, &in) || in.NewPassword == "" {
		writeMessage(w, http.StatusBadRequest, "New password is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	_, a := b.findLocked(in.Identifier)
	if a == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	a.password = in.NewPassword
	writeMessage(w, http.StatusOK, "Password updated")
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	delay := b.refreshDelay
	b.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decode(r, &in) || in.RefreshToken == "" {
		writeMessage(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id, ok := b.refresh[in.RefreshToken]
	if !ok || b.rejectRefresh {
		writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	access, err := b.accessTokenLocked(id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]string{"accessToken": access}
	if b.rotateRefresh {
		delete(b.refresh, in.RefreshToken)
		rotated := uuid.NewString()
		b.refresh[rotated] = id
		resp["refreshToken"] = rotated
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = decode(r, &in)

	b.mu.Lock()
	delete(b.refresh, in.RefreshToken)
	b.mu.Unlock()

	writeMessage(w, http.StatusOK, "Logged out successfully")
}

// splitProfile returns the user document without its profile, and the profile.
func splitProfile(doc map[string]any) (map[string]any, map[string]any) {
	user := cloneDoc(doc)
	profile, _ := user["profile"].(map[string]any)
	delete(user, "profile")
	if profile == nil {
		profile = map[string]any{}
	}
	return user, profile
}

func (b *Backend) handleGetUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.accounts[chi.URLParam(r, "id")]
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	user, profile := splitProfile(a.doc)
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "profile": profile})
}

func (b *Backend) handleListUsers(w http.ResponseWriter, r *http.Request) {
	var page struct {
		Page     int `json:"page"`
		PageSize int `json:"pageSize"`
	}
	if !decode(r, &page) {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if page.Page < 1 {
		page.Page = 1
	}
	if page.PageSize < 1 {
		page.PageSize = 10
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if admin, _ := b.accounts[callerID(r)].doc["isAdmin"].(bool); !admin {
		writeMessage(w, http.StatusForbidden, "Admin access required")
		return
	}

	ids := make([]string, 0, len(b.accounts))
	for id := range b.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data := []map[string]any{}
	start := (page.Page - 1) * page.PageSize
	for i := start; i < len(ids) && i < start+page.PageSize; i++ {
		data = append(data, cloneDoc(b.accounts[ids[i]].doc))
	}
	writeJSON(w, http.StatusOK, map[string]any{"usersList": map[string]any{"data": data, "total": len(ids)}})
}

// targetLocked returns the account a mutation addresses, writing the error
// response itself when the caller may not touch it.
func (b *Backend) targetLocked(w http.ResponseWriter, r *http.Request, id string) *account {
	if id == "" {
		writeMessage(w, http.StatusBadRequest, "User id is required")
		return nil
	}
	a, ok := b.accounts[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return nil
	}
	caller := callerID(r)
	if admin, _ := b.accounts[caller].doc["isAdmin"].(bool); caller != id && !admin {
		writeMessage(w, http.StatusForbidden, "Not allowed")
		return nil
	}
	return a
}

func (b *Backend) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var in map[string]any
	if !decode(r, &in) {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id, _ := in["id"].(string)
	a := b.targetLocked(w, r, id)
	if a == nil {
		return
	}
	for k, v := range in {
		switch k {
		case "id", "updatedBy", "profile", "isAdmin":
			continue
		}
		a.doc[k] = v
	}
	user, _ := splitProfile(a.doc)
	writeJSON(w, http.StatusOK, map[string]any{"message": "User updated", "user": user})
}

func (b *Backend) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in map[string]any
	if !decode(r, &in) {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id, _ := in["userId"].(string)
	a := b.targetLocked(w, r, id)
	if a == nil {
		return
	}
	_, profile := splitProfile(a.doc)
	for k, v := range in {
		if k == "userId" {
			continue
		}
		profile[k] = v
	}
	a.doc["profile"] = profile
	writeJSON(w, http.StatusOK, map[string]any{"message": "Profile updated", "profile": cloneDoc(profile)})
}

func (b *Backend) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid form")
		return
	}
	file, hdr, err := r.FormFile("profile_pic")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Unreadable file")
		return
	}
	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a := b.targetLocked(w, r, r.FormValue("userId"))
	if a == nil {
		return
	}
	ref := "/uploads/" + uuid.NewString() + path.Ext(hdr.Filename)
	b.uploads[ref] = upload{contentType: contentType, data: data}

	_, profile := splitProfile(a.doc)
	profile["avatarUrl"] = ref
	a.doc["profile"] = profile
	writeJSON(w, http.StatusOK, map[string]any{"message": "Avatar uploaded", "profile": cloneDoc(profile)})
}

func (b *Backend) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	f, ok := b.uploads["/uploads/"+chi.URLParam(r, "name")]
	b.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusNotFound, "Not found")
		return
	}
	w.Header().Set("Content-Type", f.contentType)
	_, _ = w.Write(f.data)
}

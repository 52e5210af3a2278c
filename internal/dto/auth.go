package dto

type StartLoginRequest struct {
	EmailAddress string `json:"emailaddress"`
}

type ChallengeResponse struct {
	ChallengeToken string `json:"challengeToken"`
	ExpiresIn      int64  `json:"expiresIn"`
}

type VerifyLoginRequest struct {
	AuthCode string `json:"auth_code"`
	JWT      string `json:"jwt"`
}

type SessionResponse struct {
	SessionToken string `json:"sessionToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

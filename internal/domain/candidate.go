package domain

import (
	"fmt"
	"strings"
)

// Candidate is a parsed credential record awaiting verification.
type Candidate struct {
	// Position is the 1-based index of the record in its input.
	Position     int
	Email        string
	Nickname     string
	IdP          IdP
	RefreshToken string
	ClientID     string
	ClientSecret string
	Region       string
	AuthMethod   AuthMethod
	Provider     IdP
}

func (c Candidate) Label() string {
	return fmt.Sprintf("#%d", c.Position)
}

// Normalized fills provider, auth method, idp and region defaults.
func (c Candidate) Normalized() Candidate {
	c.Email = strings.TrimSpace(c.Email)
	c.RefreshToken = strings.TrimSpace(c.RefreshToken)
	if c.Provider == "" {
		c.Provider = c.IdP
	}
	if c.Provider == "" {
		c.Provider = IdPBuilderID
	}
	if c.IdP == "" {
		c.IdP = c.Provider
	}
	if c.AuthMethod == "" {
		c.AuthMethod = DefaultAuthMethod(c.Provider)
	}
	if strings.TrimSpace(c.Region) == "" {
		c.Region = DefaultRegion
	}
	return c
}

func (c Candidate) VerifyRequest() VerifyRequest {
	return VerifyRequest{
		RefreshToken: c.RefreshToken,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Region:       c.Region,
		AuthMethod:   c.AuthMethod,
		Provider:     c.Provider,
	}
}

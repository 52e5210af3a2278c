package domain

import "github.com/google/uuid"

type CarID = uuid.UUID

package service

import "github.com/videocall/room-access/internal/core/domain"

type nopAudit struct{}

func (nopAudit) Publish(domain.AuthEvent) {}

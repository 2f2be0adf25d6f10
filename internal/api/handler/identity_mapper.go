package handler

import (
	"github.com/bookmarket/identity/internal/core/domain"
	"github.com/bookmarket/identity/internal/core/ports"
)

// --- Request → Service input ---

func toRegisterInput(req registerRequest) ports.RegisterInput {
	return ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}
}

func toProfileUpdateInput(req updateProfileRequest) ports.ProfileUpdateInput {
	in := ports.ProfileUpdateInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Password: req.Password,
	}
	if req.Address != nil {
		in.Address = &domain.Address{
			Street:  req.Address.Street,
			City:    req.Address.City,
			State:   req.Address.State,
			ZipCode: req.Address.ZipCode,
			Country: req.Address.Country,
		}
	}
	return in
}

// --- Domain → Response ---

func toUserSummary(i *domain.Identity) userSummary {
	return userSummary{
		ID:    i.ID,
		Name:  i.Name,
		Email: i.Email,
		Role:  string(i.Role),
	}
}

func toProfileResponse(i *domain.Identity) profileResponse {
	out := profileResponse{
		ID:        i.ID,
		Name:      i.Name,
		Email:     i.Email,
		Role:      string(i.Role),
		Phone:     i.Phone,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
	if i.Address != nil {
		out.Address = &addressResponse{
			Street:  i.Address.Street,
			City:    i.Address.City,
			State:   i.Address.State,
			ZipCode: i.Address.ZipCode,
			Country: i.Address.Country,
		}
	}
	return out
}

func toListResponse(res *ports.ListIdentitiesResult) listIdentitiesResponse {
	data := make([]profileResponse, 0, len(res.Items))
	for _, item := range res.Items {
		data = append(data, toProfileResponse(item))
	}
	return listIdentitiesResponse{
		Success: true,
		Data:    data,
		Pagination: pagination{
			Page:       res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
		},
	}
}

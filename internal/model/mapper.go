package model

// ToUserDto converts a User into its creation projection.
func ToUserDto(u User) UserDto {
	return UserDto{ID: u.ID, Name: u.Name, Email: u.Email}
}

// ToCategoryDto converts a Category.
func ToCategoryDto(c Category) CategoryDto {
	return CategoryDto{ID: c.ID, Name: c.Name}
}

// ToEventFullDto decorates e with its live counters.
func ToEventFullDto(e Event, confirmed, views int64) EventFullDto {
	dto := EventFullDto{
		Annotation:        e.Annotation,
		Category:          ToCategoryDto(e.Category),
		ConfirmedRequests: confirmed,
		CreatedOn:         NewTimestamp(e.CreatedOn),
		Description:       e.Description,
		EventDate:         NewTimestamp(e.EventDate),
		ID:                e.ID,
		Initiator:         UserShortDto{ID: e.Initiator.ID, Name: e.Initiator.Name},
		Location:          LocationDto{Lat: e.Location.Lat, Lon: e.Location.Lon},
		Paid:              e.Paid,
		ParticipantLimit:  e.ParticipantLimit,
		RequestModeration: e.RequestModeration,
		State:             e.State,
		Title:             e.Title,
		Views:             views,
	}
	if e.PublishedOn != nil {
		ts := NewTimestamp(*e.PublishedOn)
		dto.PublishedOn = &ts
	}
	return dto
}

// ToEventShortDto converts e into its list projection.
func ToEventShortDto(e Event, confirmed, views int64) EventShortDto {
	return EventShortDto{
		Annotation:        e.Annotation,
		Category:          ToCategoryDto(e.Category),
		ConfirmedRequests: confirmed,
		EventDate:         NewTimestamp(e.EventDate),
		ID:                e.ID,
		Initiator:         UserShortDto{ID: e.Initiator.ID, Name: e.Initiator.Name},
		Paid:              e.Paid,
		Title:             e.Title,
		Views:             views,
	}
}

// ToRequestDto converts a ParticipationRequest.
func ToRequestDto(r ParticipationRequest) ParticipationRequestDto {
	return ParticipationRequestDto{
		ID:        r.ID,
		Event:     r.EventID,
		Requester: r.RequesterID,
		Created:   NewTimestamp(r.Created),
		Status:    r.Status,
	}
}

// ToRequestDtos converts a slice, never returning nil.
func ToRequestDtos(rs []ParticipationRequest) []ParticipationRequestDto {
	out := make([]ParticipationRequestDto, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToRequestDto(r))
	}
	return out
}

// PatchFromFullDto rebuilds the mutable-field patch that reproduces dto.
func PatchFromFullDto(dto EventFullDto) EventPatch {
	eventDate := dto.EventDate
	location := dto.Location
	category := dto.Category.ID
	return EventPatch{
		Annotation:        &dto.Annotation,
		Category:          &category,
		Description:       &dto.Description,
		EventDate:         &eventDate,
		Location:          &location,
		Paid:              &dto.Paid,
		ParticipantLimit:  &dto.ParticipantLimit,
		RequestModeration: &dto.RequestModeration,
		Title:             &dto.Title,
	}
}

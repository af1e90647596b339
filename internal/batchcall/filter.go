package batchcall

// FilterTemplating drops per-recipient templating and initiation data when the
// request explicitly sets include_templating_data to false. Phone numbers and ids
// are kept. In every other case req is returned as is.
//
// The input is never mutated.
func FilterTemplating(req SubmitRequest) SubmitRequest {
	if req.IncludeTemplatingData == nil || *req.IncludeTemplatingData {
		return req
	}

	out := req
	out.Recipients = make([]Recipient, len(req.Recipients))
	for i, r := range req.Recipients {
		out.Recipients[i] = Recipient{
			PhoneNumber: r.PhoneNumber,
			ID:          r.ID,
		}
	}
	return out
}

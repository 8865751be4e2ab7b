package platform

// Test hooks for pointing adapters at local test servers.

func (a *FacebookAdapter) SetBaseURL(u string) { a.baseURL = u }

func (a *TwitterAdapter) SetBaseURL(u string) { a.baseURL = u }

func (a *InstagramAdapter) SetBaseURL(u string) { a.baseURL = u }

func (a *TikTokAdapter) SetBaseURL(u string) { a.baseURL = u }

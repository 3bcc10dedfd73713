package models

import (
	"bitbucket.org/arcadeworks/arcade_backend/utils"
)

type RedisCleaner interface {
	RemoveInstanceRedis() error // remove one
	RemoveAllRedis() error      // remove list & map if exists
}

// remove both item & list + map
func RemoveRedisBoth[T RedisCleaner](obj T) error {
	if err := obj.RemoveInstanceRedis(); err != nil {
		return err
	}
	if err := obj.RemoveAllRedis(); err != nil {
		return err
	}
	return nil
}

func (obj Venue) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Venue](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Venue) RemoveAllRedis() error {
	if err := utils.RemoveRedisList[AllVenue](obj.BusinessId); err != nil {
		return err
	}
	if err := utils.RemoveRedisMap[AllVenue](obj.BusinessId); err != nil {
		return err
	}
	return nil
}

func (obj Machine) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Machine](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Machine) RemoveAllRedis() error {
	if err := utils.RemoveRedisList[AllMachine](obj.BusinessId); err != nil {
		return err
	}
	if err := utils.RemoveRedisMap[AllMachine](obj.BusinessId); err != nil {
		return err
	}
	return nil
}

func (obj Prize) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Prize](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Prize) RemoveAllRedis() error {
	if err := utils.RemoveRedisList[AllPrize](obj.BusinessId); err != nil {
		return err
	}
	if err := utils.RemoveRedisMap[AllPrize](obj.BusinessId); err != nil {
		return err
	}
	return nil
}

func (obj Part) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Part](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Part) RemoveAllRedis() error {
	if err := utils.RemoveRedisList[AllPart](obj.BusinessId); err != nil {
		return err
	}
	if err := utils.RemoveRedisMap[AllPart](obj.BusinessId); err != nil {
		return err
	}
	return nil
}
